package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, keyClaimed, "Your submission \"%s\" was claimed by a reviewer.")
	message.SetString(lang, keyDeclined, "Your submission \"%s\" was declined.")
	message.SetString(lang, keyFinalized, "Your submission \"%s\" was graded %s with a score of %d.")
}
