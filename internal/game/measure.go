package game

type Measure struct {
	Denom  int   // The beat length, as a denominator, 4 = 1/4 beat
	TimeUs int64 // The time the measure line crosses the hit bar
}
