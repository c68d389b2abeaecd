package scoring

// GeneralScorer is used for movements that match no specific exercise. It has
// no reference checks and emits nothing.
type GeneralScorer struct{}

// Score implements Scorer.
func (GeneralScorer) Score(Input) Result { return Result{} }
