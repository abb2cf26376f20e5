package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/parlami/internal/content"
	"github.com/abhisek/parlami/internal/mastery"
	"github.com/abhisek/parlami/internal/session"
)

const (
	msgCancelled      = "Activity cancelled. Use /start to begin again!"
	msgPhraseHint     = "Type any English phrase from the list to hear it in Italian!"
	msgPhraseNotFound = "Sorry, I don't have that phrase. Try one from the list!"
	msgQuizClosing    = "Thanks for practicing! Use /phrases or /quiz to continue learning."
	msgChatIntro      = "Chat mode on! Write to me in Italian or English and I'll answer in Italian with a little feedback. Send \"stop\" to finish."
	msgChatClosing    = "Chat ended. Grazie per la conversazione! Use /quiz or /phrases to keep practicing."
	msgNoQuestions    = "Mi dispiace, there are no quiz questions for your level right now. Try /phrases instead."
	msgUnknownCommand = "Sorry, I don't know that command. Send /start to see what I can do."

	// StoreApology is sent when the learner's session cannot be loaded or saved.
	StoreApology = "Mi dispiace, something went wrong on my side. Please try again in a moment."

	// UnintelligibleAudio replaces the text of a voice message that could
	// not be transcribed.
	UnintelligibleAudio = "(non ho capito l'audio)"
)

const commandHelp = `Commands available:
/phrases - Learn common Italian phrases
/quiz - Test your Italian knowledge
/chat - Practice with your AI tutor
/progress - See your level and score
/reset - Start again from the basic level
/cancel - Stop current activity`

func welcome(name string, s *session.Session) string {
	greeting := "Ciao!"
	if name = strings.TrimSpace(name); name != "" {
		greeting = fmt.Sprintf("Ciao %s!", name)
	}
	return fmt.Sprintf("%s 🇮🇹 Welcome to your Italian conversation learning bot!\n\nLevel: %s | Score: %d\n\n%s",
		greeting, s.Level, s.Score, commandHelp)
}

func phraseList(level content.Level, phrases []content.Phrase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are some common Italian phrases to learn (%s level):", level)
	for _, p := range phrases {
		fmt.Fprintf(&b, "\n%s - %s", p.English, p.Italian)
	}
	return b.String()
}

func quizPrompt(q content.Question) string {
	return "Quiz time! " + q.Question
}

func correctAnswer(score int, lt *mastery.LevelTransition) string {
	msg := fmt.Sprintf("Correct! Ben fatto! 🎉 Score: %d", score)
	if lt != nil {
		msg += fmt.Sprintf("\nLevel up! You moved from %s to %s.", lt.From, lt.To)
	}
	return msg + "\nWant another? (yes/no)"
}

func wrongAnswer(expected string, score int) string {
	return fmt.Sprintf("Sorry, that's wrong. The correct answer is '%s'. Score: %d\nTry again? (yes/no)", expected, score)
}

func progress(s *session.Session, last time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Level: %s\nScore: %d", s.Level, s.Score)
	if next, remaining, ok := mastery.PointsToNext(s.Level, s.Score); ok {
		fmt.Fprintf(&b, "\nNext level: %s in %d points", next, remaining)
	} else {
		b.WriteString("\nYou are at the top level. Complimenti!")
	}
	b.WriteString("\nLast interaction: ")
	if last.IsZero() {
		b.WriteString("never")
	} else {
		b.WriteString(last.UTC().Format("2006-01-02 15:04 UTC"))
	}
	return b.String()
}

func resetDone(s *session.Session) string {
	return fmt.Sprintf("Your progress has been reset. Level: %s | Score: %d", s.Level, s.Score)
}
