package engine

// Options configures the native engine.
type Options struct {
	// ThreadsPerModel is the worker count handed to bergamot_create for
	// each loaded model. The translation pool already runs models in
	// parallel, so one is usually right.
	ThreadsPerModel int
}

func (o Options) withDefaults() Options {
	if o.ThreadsPerModel <= 0 {
		o.ThreadsPerModel = 1
	}
	return o
}

// bergamotPairKey is the language-pair string liblinguaspark expects
// ("enfr" for English to French).
func bergamotPairKey(from, to string) string {
	return from + to
}
