package classify

import (
	"fmt"
	"strings"
)

// Answer template phrases the model is instructed to use. The presenter keys
// its classification signal off these same phrases.
const (
	AffirmativeAnswer = "Yes, this is recyclable!"
	NegativeAnswer    = "No, this isnt recyclable"

	// UnknownLocationAnswer is emitted verbatim when the model judges the
	// location string not to name a real place.
	UnknownLocationAnswer = "This location does not exist. Please enter a valid location."
)

// buildPrompt produces the single-turn instruction for one request. The
// real-vs-fake location judgment is delegated to the model through the final
// override rule; it is a best-effort semantic check, not validation.
func buildPrompt(location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user is in %s. ", location)
	b.WriteString("Identify whether the object in the image is recyclable in a recycling bin based on that location's recycling regulations. ")
	fmt.Fprintf(&b, "Respond simply with \"This is a (object)\" and \"%s\" or \"%s\", along with a short explanation of why it is or is not recyclable, written so a middle schooler could understand it. ", AffirmativeAnswer, NegativeAnswer)
	fmt.Fprintf(&b, "If %q does not name a real place, ignore the image and everything above and respond only with: %s", location, UnknownLocationAnswer)
	return b.String()
}
