package modelconfig

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// Files are the artifacts of one bergamot model directory.
type Files struct {
	SrcVocab  string `json:"src_vocab"`
	TrgVocab  string `json:"trg_vocab"`
	Model     string `json:"model"`
	Shortlist string `json:"shortlist,omitempty"`
}

// FromDir classifies the files in dir by name:
//   - *.spm: vocabulary (srcvocab*/trgvocab* split, otherwise shared)
//   - *.intgemm.alphas.bin, *.intgemm8.bin: model weights
//   - *.s2t.bin: lexical shortlist
func FromDir(dir string) (*Files, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.ErrConfig("cannot read model directory").
			WithParam(dir).
			WithCause(errors.Wrapf(err, "read dir %s", dir))
	}

	files := &Files{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		switch {
		case strings.HasSuffix(name, ".spm"):
			switch {
			case strings.HasPrefix(name, "srcvocab"):
				files.SrcVocab = path
			case strings.HasPrefix(name, "trgvocab"):
				files.TrgVocab = path
			default:
				files.SrcVocab = path
				files.TrgVocab = path
			}
		case strings.HasSuffix(name, ".intgemm.alphas.bin"), strings.HasSuffix(name, ".intgemm8.bin"):
			files.Model = path
		case strings.HasSuffix(name, ".s2t.bin"):
			files.Shortlist = path
		}
	}

	if files.Model == "" {
		return nil, domain.ErrConfig("model directory has no *.intgemm*.bin weights").WithParam(dir)
	}
	if files.SrcVocab == "" || files.TrgVocab == "" {
		return nil, domain.ErrConfig("model directory has no *.spm vocabulary").WithParam(dir)
	}
	return files, nil
}

// Render produces the YAML config description for these files.
func (f *Files) Render(opts RenderOptions) string {
	cfg := opts.withDefaults().config()
	cfg.Models = []string{f.Model}
	cfg.Vocabs = []string{f.SrcVocab, f.TrgVocab}
	if f.Shortlist != "" {
		cfg.Shortlist = []interface{}{f.Shortlist, false}
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		// Config only holds strings, numbers and bools.
		panic(err)
	}
	return string(out)
}

// RenderOptions are the decoder settings written into a rendered config.
// Zero values take the bergamot defaults.
type RenderOptions struct {
	BeamSize        int
	MaxLengthBreak  int
	MiniBatchWords  int
	Workspace       int
	MaxLengthFactor float64
	GemmPrecision   string
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.BeamSize == 0 {
		o.BeamSize = 1
	}
	if o.MaxLengthBreak == 0 {
		o.MaxLengthBreak = 128
	}
	if o.MiniBatchWords == 0 {
		o.MiniBatchWords = 1024
	}
	if o.Workspace == 0 {
		o.Workspace = 128
	}
	if o.MaxLengthFactor == 0 {
		o.MaxLengthFactor = 2.0
	}
	if o.GemmPrecision == "" {
		o.GemmPrecision = "int8shiftAll"
	}
	return o
}

func (o RenderOptions) config() *Config {
	return &Config{
		BeamSize:         o.BeamSize,
		Normalize:        1.0,
		WordPenalty:      0,
		MaxLengthBreak:   o.MaxLengthBreak,
		MiniBatchWords:   o.MiniBatchWords,
		Workspace:        o.Workspace,
		MaxLengthFactor:  o.MaxLengthFactor,
		SkipCost:         true,
		Quiet:            true,
		QuietTranslation: true,
		GemmPrecision:    o.GemmPrecision,
	}
}

// Discover maps every subdirectory of root whose name parses as a language
// pair (for example "enfr") to its files. Other subdirectories are skipped;
// an incomplete pair directory fails the whole discovery.
func Discover(root string) (map[domain.LanguagePair]*Files, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, domain.ErrConfig("cannot read models root").
			WithParam(root).
			WithCause(errors.Wrapf(err, "read dir %s", root))
	}

	found := make(map[domain.LanguagePair]*Files)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pair, err := domain.ParseLanguagePair(entry.Name())
		if err != nil {
			continue
		}
		files, err := FromDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		found[pair] = files
	}
	return found, nil
}

// SortedPairs returns the keys of a Discover result in a stable order.
func SortedPairs(m map[domain.LanguagePair]*Files) []domain.LanguagePair {
	pairs := make([]domain.LanguagePair, 0, len(m))
	for pair := range m {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].String() < pairs[j].String()
	})
	return pairs
}
