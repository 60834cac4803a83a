package types

// OpinionErrorTag classifies why an opinion source failed to respond.
type OpinionErrorTag string

const (
	OpinionErrNone    OpinionErrorTag = ""
	OpinionErrTimeout OpinionErrorTag = "timeout"
	OpinionErrParse   OpinionErrorTag = "parse_failure"
)

// ModelOpinion is a single model's probability judgment for one market.
// Produced once per market per cycle; not persisted beyond the cycle log.
type ModelOpinion struct {
	Model       string
	Probability float64 // P(YES) in [0, 1]
	Confidence  int     // 1..10
	Reasoning   string
	Err         OpinionErrorTag
}

// Valid reports whether the opinion is usable for consensus.
func (o *ModelOpinion) Valid() bool {
	return o != nil && o.Err == OpinionErrNone
}

// Direction is the consensus trade direction for a market.
type Direction string

const (
	DirectionYes     Direction = "YES"
	DirectionNo      Direction = "NO"
	DirectionAbstain Direction = "ABSTAIN"
)

// ConsensusResult aggregates the valid opinions for one market.
// The average is taken over all valid respondents; agreement counts how
// many of them are on the same side as the final direction.
type ConsensusResult struct {
	MarketID       string
	Question       string
	Direction      Direction
	Agreement      int // Valid respondents on the final direction's side
	Respondents    int // Valid respondents overall
	AvgProbability float64
	AvgConfidence  float64
	MarketPrice    float64
	Edge           float64 // |avg - price|, signed toward the direction
	Opinions       []ModelOpinion
}

// SizingDecision converts a consensus edge into a bounded stake.
// A zero Fraction with a non-empty RejectReason means no order is produced.
type SizingDecision struct {
	MarketID     string
	TokenID      string
	Direction    Direction
	Price        float64 // Effective cost of the chosen side
	Edge         float64
	Confidence   float64
	Bankroll     float64
	Fraction     float64 // In [0, max-bet-fraction]
	Amount       float64 // Fraction * bankroll, rounded to granularity
	RejectReason string
}

// Rejected reports whether the sizer declined to produce an order.
func (d *SizingDecision) Rejected() bool {
	return d.RejectReason != ""
}
