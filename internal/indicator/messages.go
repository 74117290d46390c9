package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
	localeHindi   locale = "hi"
)

type messages struct {
	recording  string
	processing string
	success    string
	errorText  string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "hi") {
		return localeHindi
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeHindi:
		return messages{
			recording:  "Sun raha hoon…",
			processing: "Likh raha hoon…",
			success:    "Paste ho gaya",
			errorText:  "Dictation fail ho gaya",
		}
	default:
		return messages{
			recording:  "Recording…",
			processing: "Transcribing…",
			success:    "Pasted",
			errorText:  "Dictation failed",
		}
	}
}
