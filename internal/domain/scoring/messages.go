package scoring

// Feedback messages. The text is the identity of a feedback event, so
// changing a message changes how reports aggregate it.
const (
	MsgPushupDepthGood     = "Good depth - elbows at proper angle"
	MsgPushupTooShallow    = "Too shallow - lower your chest more"
	MsgPushupHipsTooHigh   = "Hips too high - keep body straight"
	MsgPushupHipsSagging   = "Hips sagging - engage your core"
	MsgPushupAlignmentGood = "Good body alignment"

	MsgSquatDepthExcellent = "Excellent depth - below parallel"
	MsgSquatDepthParallel  = "Good depth - at parallel"
	MsgSquatTooShallow     = "Too shallow - squat deeper"
	MsgSquatKneesCaving    = "Knees caving in - push knees out"
	MsgSquatKneeTracking   = "Good knee tracking"

	MsgPullupTopGood     = "Full pull - chin over the bar"
	MsgPullupBottomGood  = "Full extension at the bottom"
	MsgPullupSwing       = "Too much body swing - control the momentum"
	MsgPullupStableSwing = "Stable body - minimal swing"
)
