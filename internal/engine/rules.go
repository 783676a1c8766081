package engine

import "github.com/kiranze/FPVNoobBot/internal/model"

// Rule binds one semantic predicate to the action taken when it matches.
// Rules are evaluated in slice order and evaluation stops at the first
// affirmative answer, so an item maps to at most one category.
type Rule struct {
	// Name identifies the rule in logs and the audit trail.
	Name string

	// Prompt builds the classification prompt for an item.
	Prompt func(title, body string) string

	// Action is performed when the rule matches.
	Action model.Action

	// Subject is the notification subject sent after the action.
	Subject string
}

const botSignature = "\n\n---\n^I ^am ^a ^bot, ^this ^action ^was ^done ^automatically."

// FlipReply is the canned flip-on-takeoff troubleshooting reply.
const FlipReply = "It seems like you're experiencing a drone flip on takeoff.\n\n" +
	"[Here's](https://www.youtube.com/watch?v=7sSYwzVCJdA) a video that should help troubleshoot the issue." +
	botSignature

// MotorSpinReply explains motor spin-up without props.
const MotorSpinReply = "It seems like your quad's motors are throttling up on their own when arming without props. This is totally normal.\n\n" +
	"The flight controller expects the drone to react to motor output. Without props, there's no movement, so the flight controller keeps increasing throttle trying to 'correct' what it thinks is an error.\n\n" +
	"This doesn't happen in the air or with props on—it's just feedback loss.\n\n" +
	"---\n" +
	"^I ^am ^a ^bot, ^this ^action ^was ^done ^automatically. ^This ^feature ^is ^still ^being ^tested, ^if ^this ^reply ^seems ^wrong, ^please ^report ^it ^by ^replying ^to ^the ^bot."

// SolderingReply points at a soldering guide.
const SolderingReply = "It looks like you're fighting a soldering problem.\n\n" +
	"[This guide](https://oscarliang.com/soldering-guide/) covers iron choice, tinning, and fixing cold joints — most FPV soldering issues come down to too little heat and no flux." +
	botSignature

// DefaultRules returns the classification pipeline in priority order:
// flip-on-takeoff, promotional spam, motor-spin-without-props, soldering
// help. Order matters and is fixed per deployment.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "flip_on_takeoff",
			Prompt:  buildFlipPrompt,
			Action:  model.ReplyAndReport(FlipReply, "auto: flip-on-takeoff troubleshooting reply"),
			Subject: "Bot Reply - Flip Detected",
		},
		{
			Name:    "promotional_spam",
			Prompt:  buildPromoPrompt,
			Action:  model.RemoveAsSpam("promotional spam"),
			Subject: "Bot Action - Spam Removed",
		},
		{
			Name:    "motor_spin_no_props",
			Prompt:  buildMotorSpinPrompt,
			Action:  model.Reply(MotorSpinReply),
			Subject: "Bot Reply - Motor Spin Issue",
		},
		{
			Name:    "soldering_help",
			Prompt:  buildSolderingPrompt,
			Action:  model.Reply(SolderingReply),
			Subject: "Bot Reply - Soldering Help",
		},
	}
}
