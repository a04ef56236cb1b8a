package orchestrator

var (
	greetings = map[string]string{
		"english": "Namaste, I am Vani from the Delhi Government. How can I help you today?",
		"hindi":   "Namaste, main Vani hoon Delhi Sarkar ki AI Voice Assistant. Main aapki kaise madad kar sakti hoon?",
		"punjabi": "Sat Sri Akal, main Vani haan Delhi Sarkar di AI Voice Assistant. Main tussi ki madad kar sakdi haan?",
	}
	clarifications = map[string]string{
		"english": "I'm sorry, could you please repeat that?",
		"hindi":   "Maaf kijiye, kya aap phir se bol sakte hain?",
		"punjabi": "Maaf karna ji, tussi phir bol sakde ho?",
	}
	apologies = map[string]string{
		"english": "I apologize, I'm having technical difficulties. Could you please say that again?",
		"hindi":   "Maaf kijiye, abhi technical dikkat aa rahi hai. Kya aap phir se bol sakte hain?",
		"punjabi": "Maaf karna ji, hune technical dikkat aa rahi hai. Tussi phir bol sakde ho?",
	}
	reminders = map[string]string{
		"english": "Are you still there? Please tell me how I can help.",
		"hindi":   "Kya aap abhi bhi line par hain? Bataiye main kaise madad kar sakti hoon.",
		"punjabi": "Ki tussi hale vi line te ho? Dasso main ki madad kar sakdi haan.",
	}
	timeouts = map[string]string{
		"english": "I'm sorry, this is taking longer than expected. Could you please repeat that?",
		"hindi":   "Maaf kijiye, isme thoda zyada samay lag raha hai. Kya aap phir se bata sakte hain?",
		"punjabi": "Maaf karna ji, is vich thoda zyada samaan lag reha hai. Tussi phir dass sakde ho?",
	}
)

func pick(m map[string]string, lang string) string {
	if s, ok := m[lang]; ok {
		return s
	}
	return m["english"]
}

// Greeting is the first thing said on a call.
func Greeting(lang string) string { return pick(greetings, lang) }

// TimeoutReply is spoken when a turn runs past its deadline.
func TimeoutReply(lang string) string { return pick(timeouts, lang) }

// Clarification asks the caller to repeat themselves.
func Clarification(lang string) string { return pick(clarifications, lang) }

// Apology covers a failed turn.
func Apology(lang string) string { return pick(apologies, lang) }

// Reminder nudges a caller who has gone quiet.
func Reminder(lang string) string { return pick(reminders, lang) }
