// Package cli provides a simple CLI typing loop for debugging the matcher and score pipeline in real-time
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kanatype/kanatype/internal/utils"
	"github.com/kanatype/kanatype/pkg/dispatch"
	"github.com/kanatype/kanatype/pkg/match"
	"github.com/kanatype/kanatype/pkg/score"
)

// builtin practice phrases, cycled in order
var practicePhrases = []string{
	"にほんご",
	"きって",
	"さんぽ",
	"しんかんせん",
	"おちゃ",
	"きんえん",
	"こんにちは",
	"ぎゅうにゅう",
	"がっこう",
	"ありがとう",
}

// InputHandler runs typing rounds against the matcher and reports the
// score for each round. It accepts flags to control behavior such as
// phrase count and whether the romaji hint is shown.
type InputHandler struct {
	matcher      *match.Matcher
	disp         *dispatch.Dispatcher
	phraseLimit  int
	showRomaji   bool
	requestCount int
}

// NewInputHandler creates a new CLI input handler
func NewInputHandler(matcher *match.Matcher, disp *dispatch.Dispatcher, phraseLimit int, showRomaji bool) *InputHandler {
	if phraseLimit < 1 || phraseLimit > len(practicePhrases) {
		phraseLimit = len(practicePhrases)
	}
	return &InputHandler{
		matcher:     matcher,
		disp:        disp,
		phraseLimit: phraseLimit,
		showRomaji:  showRomaji,
	}
}

// Start begins the CLI typing loop
func (h *InputHandler) Start() error {
	log.Print("KanaType CLI [BETA]")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type the romaji for each phrase, press enter to check (Ctrl+C to exit):")

	perPhraseKPM := make([]float64, 0, h.phraseLimit)
	totalCorrect, totalMiss := 0, 0

	for i := 0; i < h.phraseLimit; i++ {
		phrase := practicePhrases[i%len(practicePhrases)]
		session, err := match.NewSession(phrase, nil)
		if err != nil {
			log.Errorf("Creating session for '%s': %v", phrase, err)
			continue
		}

		clPhrase := fmt.Sprintf("\033[38;5;75m%s\033[0m", phrase)
		if h.showRomaji {
			info := h.matcher.DisplayInfo(session)
			log.Printf("%2d. %s  (%s...)", i+1, clPhrase, info.CurrentExpected)
		} else {
			log.Printf("%2d. %s", i+1, clPhrase)
		}
		log.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			i--
			continue
		}

		start := time.Now()
		correct, miss := h.replay(session, line)
		elapsed := time.Since(start)
		totalCorrect += correct
		totalMiss += miss

		if !session.Completed() {
			info := h.matcher.DisplayInfo(session)
			log.Warnf("Incomplete: stopped at '%s', expected '%s'", info.TypedPrefix, info.CurrentExpected)
		}

		result, err := h.score(correct, miss, elapsed.Milliseconds())
		if err != nil {
			log.Errorf("Score calculation: %v", err)
			continue
		}
		perPhraseKPM = append(perPhraseKPM, float64(result.KPM))

		log.Printf("rank %-2s  kpm %4d  acc %6.2f%%  score %s",
			result.RankLabel, result.KPM, result.Accuracy,
			utils.FormatWithCommas(result.Score))
	}

	h.printSummary(perPhraseKPM, totalCorrect, totalMiss)
	return nil
}

// replay feeds an entered line through the matcher one keystroke at a
// time, exactly as live input would arrive.
func (h *InputHandler) replay(session *match.Session, line string) (correct, miss int) {
	h.requestCount++

	for _, key := range line {
		result, err := h.matcher.Match(session, key)
		if err != nil {
			// completed mid-line, the rest of the input is a miss
			miss++
			continue
		}
		if result.Accepted {
			correct++
		} else {
			miss++
		}
	}
	return correct, miss
}

// score runs the calculation through the dispatcher so the CLI
// exercises the same path as the IPC surface.
func (h *InputHandler) score(correct, miss int, elapsedMs int64) (score.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.disp.CalculateScore(ctx, dispatch.ScoreRequest{
		CorrectCount: correct,
		MissCount:    miss,
		ElapsedMs:    elapsedMs,
	})
}

func (h *InputHandler) printSummary(perPhraseKPM []float64, correct, miss int) {
	if len(perPhraseKPM) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := h.disp.CalculateStats(ctx, dispatch.StatsRequest{
		PerPhraseKPM: perPhraseKPM,
		CorrectCount: correct,
		MissCount:    miss,
	})
	if err != nil {
		log.Errorf("Stats calculation: %v", err)
		return
	}
	log.Printf("Session: avg kpm %.1f, %s keystrokes, %.2f%% accuracy",
		stats.AverageKPM, utils.FormatWithCommas(stats.TotalKeystrokes), stats.Accuracy)
}
