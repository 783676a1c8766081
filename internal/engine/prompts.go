package engine

import "fmt"

// systemPrompt frames every classification call.
const systemPrompt = "You are an FPV drone expert."

func buildFlipPrompt(title, body string) string {
	return fmt.Sprintf(`A user posted this in r/fpv:
Title: "%s"
Body: "%s"

Does this post describe a drone (also called quad, kwad, quadcopter, tinywhoop, cinewhoop, whoop) experiencing a flip-out on takeoff?
This includes issues where the drone disarms, flips, jumps, or spins out after arming when throttle is raised.
**Answer "No" to posts about intentional flips, freestyle tricks, or pilots describing how many flips they can do.**
**Answer "No" to posts that mention or imply the drone flying normally before crashing/flipping out**
Only answer "Yes" if you are 100%% certain that the post is describing a drone flipping, disarming, or spinning out on takeoff or throttle up — not while flying. If you're even slightly unsure, answer "No".
Always answer with only "Yes" or "No", no extra text.`, title, body)
}

func buildPromoPrompt(title, body string) string {
	return fmt.Sprintf(`A user posted this in r/fpv:
Title: "%s"
Body: "%s"

Is this post promotional spam: advertising coupon codes, referral links, discounts, store promotions, or asking readers to buy through the poster's link?
**Answer "No" to genuine deal discussions, questions about whether a product is worth buying, or reviews without a referral incentive.**
Only answer "Yes" if the post clearly exists to funnel readers to a promotion. If you're even slightly unsure, answer "No".
Always answer with only "Yes" or "No", no extra text.`, title, body)
}

func buildMotorSpinPrompt(title, body string) string {
	return fmt.Sprintf(`A user posted this in r/fpv:
Title: "%s"
Body: "%s"

Is this post asking why motors start to spin up or increase throttle *only* when props are off, for example, when testing on the bench or after arming without props?
This is a common issue caused by the PID controller not getting feedback from the props, causing it to increase motor output thinking the drone isn't moving.
Only answer "Yes" if the post is *clearly* about motors speeding up uncontrollably when there are NO props on. Answer "No" if props are on, if it's about idle throttle spin, or if you are not 100%% sure.
Answer only "Yes" or "No".`, title, body)
}

func buildSolderingPrompt(title, body string) string {
	return fmt.Sprintf(`A user posted this in r/fpv:
Title: "%s"
Body: "%s"

Is this post asking for help with soldering on a drone build: cold joints, pads lifting, tinning wires, choosing an iron, or fixing a bad solder connection?
**Answer "No" to posts that merely mention soldering in passing while asking about something else.**
Only answer "Yes" if soldering help is clearly the point of the post. If you're even slightly unsure, answer "No".
Answer only "Yes" or "No".`, title, body)
}
