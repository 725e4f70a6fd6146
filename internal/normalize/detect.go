package normalize

import "github.com/abadojack/whatlanggo"

// WhatlangDetector detects language with the whatlang trigram model.
type WhatlangDetector struct{}

func (WhatlangDetector) Detect(text string) (string, bool) {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", false
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return code, true
}
