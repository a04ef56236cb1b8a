package tools

import (
	"fmt"
	"strings"
)

type phrase int

const (
	phraseApology phrase = iota
	phraseTrouble
	phraseMissing
	phraseConfirm
	phraseRegistered
	phraseAlreadyDone
	phraseStatus
	phraseNotFound
	phraseEscalated
	phraseFeedback
	phraseEmergency
	phraseGeneralInfo
)

var phrases = map[string]map[phrase]string{
	"english": {
		phraseApology:     "I apologize, I had trouble processing that. Could you please repeat?",
		phraseTrouble:     "I apologize, I'm having technical difficulties right now. Please try again in a moment.",
		phraseMissing:     "Before I can do that, I need %s. Could you please tell me?",
		phraseConfirm:     "Shall I go ahead with this? Please say yes to confirm.",
		phraseRegistered:  "Your complaint has been registered successfully. Your ticket number is %s. This has been marked as %s priority. You will receive SMS updates on %s. Is there anything else I can help you with?",
		phraseAlreadyDone: "This has already been taken care of on this call. Your reference number is %s. Is there anything else I can help you with?",
		phraseStatus:      "Your complaint with ticket number %s %s %s. This is a %s priority issue. Is there anything else I can help you with?",
		phraseNotFound:    "I could not find a complaint with ticket number %s. Please check the ticket number and try again.",
		phraseEscalated:   "Your complaint %s has been escalated to senior authorities. You will receive a call from a senior officer within 24 hours. Is there anything else I can help you with?",
		phraseFeedback:    "Thank you for your feedback. Your %d-star rating has been recorded. We appreciate your input in helping us improve our services.",
		phraseEmergency:   "I have immediately notified emergency services about the %s at %s. Help is on the way. Please stay on the line.",
		phraseGeneralInfo: "Based on the available information, I can help you with that. Is there anything specific you'd like to know?",
	},
	"hindi": {
		phraseApology:     "Maaf kijiye, mujhe samajhne mein dikkat hui. Kya aap phir se bol sakte hain?",
		phraseTrouble:     "Maaf kijiye, abhi technical dikkat aa rahi hai. Kripya thodi der mein phir koshish kijiye.",
		phraseMissing:     "Iske liye mujhe %s chahiye. Kripya bataiye?",
		phraseConfirm:     "Kya main aage badhoon? Confirm karne ke liye haan boliye.",
		phraseRegistered:  "Aapki complaint register ho gayi hai. Aapka ticket number hai %s. Ise %s priority di gayi hai. Aapko %s par SMS updates milenge. Kya main aur kuch madad kar sakti hoon?",
		phraseAlreadyDone: "Yeh is call mein pehle hi ho chuka hai. Aapka reference number hai %s. Kya main aur kuch madad kar sakti hoon?",
		phraseNotFound:    "Ticket number %s wali koi complaint nahi mili. Kripya ticket number check karke dobara bataiye.",
		phraseEscalated:   "Aapki complaint %s senior adhikariyon ko escalate kar di gayi hai. 24 ghante mein aapko senior officer ka call aayega. Kya main aur kuch madad kar sakti hoon?",
		phraseFeedback:    "Aapke feedback ke liye dhanyavaad. Aapki %d-star rating record ho gayi hai.",
		phraseEmergency:   "Maine %s emergency ke liye, %s par, emergency services ko turant suchit kar diya hai. Madad aa rahi hai. Kripya line par bane rahiye.",
	},
	"punjabi": {
		phraseApology:     "Maaf karna ji, mainu samajh nahi aaya. Tussi phir bol sakde ho?",
		phraseTrouble:     "Maaf karna ji, hune technical dikkat aa rahi hai. Kirpa karke thodi der baad phir koshish karo.",
		phraseMissing:     "Is layi mainu %s chahida hai. Kirpa karke dasso ji?",
		phraseConfirm:     "Ki main agge vadhaan? Confirm karan layi haan kaho.",
		phraseRegistered:  "Tuhadi complaint register ho gayi hai. Tuhada ticket number hai %s. Isnu %s priority ditti gayi hai. Tuhanu %s te SMS updates milange. Hor koi madad chahidi hai?",
		phraseAlreadyDone: "Eh is call vich pehlan hi ho chukka hai. Tuhada reference number hai %s. Hor koi madad chahidi hai?",
		phraseNotFound:    "Ticket number %s wali koi complaint nahi mili. Kirpa karke ticket number check karke dobara dasso.",
		phraseEscalated:   "Tuhadi complaint %s senior adhikariyan nu escalate kar ditti gayi hai. 24 ghanteyan vich senior officer da call aavega. Hor koi madad chahidi hai?",
		phraseFeedback:    "Tuhade feedback layi dhanvaad. Tuhadi %d-star rating record ho gayi hai.",
		phraseEmergency:   "Main %s emergency layi, %s te, emergency services nu turant dass ditta hai. Madad aa rahi hai. Kirpa karke line te rahoji.",
	},
}

var statusPhrases = map[string]string{
	"OPEN":        "is currently open and being reviewed by",
	"IN_PROGRESS": "is in progress and being handled by",
	"RESOLVED":    "has been resolved by",
	"CLOSED":      "has been closed by",
	"ESCALATED":   "has been escalated to higher authorities in",
}

// say renders a phrase in the caller's language, falling back to English.
func say(lang string, p phrase, args ...any) string {
	tmpl, ok := phrases[lang][p]
	if !ok {
		tmpl = phrases["english"][p]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// joinLabels renders "a", "a and b", "a, b and c".
func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
}
