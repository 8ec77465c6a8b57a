// Package syntax segments English text into sentences and words and labels
// passive constructions.
//
// Segmentation follows Unicode UAX #29. Labelling is rule based: a form of
// "be" or "get" followed by a past participle is a passive auxiliary, and the
// nearest nominal before it is the passive subject.
package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/zombar/wordwise/internal/models"
)

// Dependency labels assigned by the parser
const (
	DepPassiveSubject   = "nsubjpass"
	DepPassiveAuxiliary = "auxpass"
	DepParticiple       = "participle"
)

// Parser is stateless and safe for concurrent use
type Parser struct{}

// New creates a new Parser
func New() *Parser {
	return &Parser{}
}

// Parse splits text into sentences and labels their tokens. Offsets are
// runes of text; sentence spans exclude surrounding whitespace.
func (p *Parser) Parse(text string) []models.ParsedSentence {
	var sentences []models.ParsedSentence

	offset := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var sentence string
		sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
		length := utf8.RuneCountInString(sentence)

		trimmedLeft := strings.TrimLeftFunc(sentence, unicode.IsSpace)
		lead := length - utf8.RuneCountInString(trimmedLeft)
		body := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)

		if body != "" {
			start := offset + lead
			sent := models.ParsedSentence{
				Start:  start,
				End:    start + utf8.RuneCountInString(body),
				Tokens: tokenize(body, start),
			}
			labelPassive(sent.Tokens)
			sentences = append(sentences, sent)
		}
		offset += length
	}
	return sentences
}

// tokenize returns the words of s, skipping whitespace and punctuation
func tokenize(s string, base int) []models.Token {
	var tokens []models.Token

	offset := base
	state := -1
	rest := s
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if isWord(word) {
			tokens = append(tokens, models.Token{Text: word, Start: offset})
		}
		offset += utf8.RuneCountInString(word)
	}
	return tokens
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// labelPassive marks passive auxiliaries, their participles and subjects
func labelPassive(tokens []models.Token) {
	for i := range tokens {
		if !passiveAuxiliaries[lower(tokens[i].Text)] {
			continue
		}

		j := i + 1
		for j < len(tokens) && isIntervening(lower(tokens[j].Text)) {
			j++
		}
		if j >= len(tokens) || !isParticiple(lower(tokens[j].Text)) {
			continue
		}

		subj := -1
		for k := i - 1; k >= 0; k-- {
			w := lower(tokens[k].Text)
			if passiveAuxiliaries[w] || auxiliaries[w] || isAdverb(w) {
				continue
			}
			subj = k
			break
		}
		if subj < 0 {
			continue
		}

		tokens[i].Dep = DepPassiveAuxiliary
		tokens[j].Dep = DepParticiple
		tokens[subj].Dep = DepPassiveSubject
	}
}

func lower(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "\u2019", "'")
}

// isIntervening reports words allowed between an auxiliary and its participle
func isIntervening(w string) bool {
	return w == "been" || w == "being" || isAdverb(w)
}

func isAdverb(w string) bool {
	return adverbs[w] || (strings.HasSuffix(w, "ly") && len(w) > 4)
}

func isParticiple(w string) bool {
	if irregularParticiples[w] {
		return true
	}
	if adjectivalParticiples[w] {
		return false
	}
	return len(w) > 4 && strings.HasSuffix(w, "ed") && !edNonVerbs[w]
}

var passiveAuxiliaries = setOf(
	"am", "is", "are", "was", "were", "be", "been", "being",
	"get", "gets", "got", "gotten", "getting",
	"isn't", "aren't", "wasn't", "weren't",
)

var auxiliaries = setOf(
	"will", "would", "shall", "should", "can", "could", "may", "might", "must",
	"has", "have", "had", "having", "do", "does", "did", "to",
	"won't", "wouldn't", "can't", "couldn't", "shouldn't", "hasn't", "haven't", "hadn't",
)

var adverbs = setOf(
	"not", "never", "also", "just", "already", "often", "always", "still",
	"soon", "recently", "then", "now", "ever", "all", "both", "quickly",
	"very", "too", "rarely", "seldom", "sometimes", "usually",
)

var irregularParticiples = setOf(
	"arisen", "awoken", "beaten", "become", "begun", "bent", "bitten", "blown",
	"born", "borne", "bought", "bound", "broken", "brought", "built", "burnt",
	"caught", "chosen", "cut", "dealt", "done", "drawn", "driven", "drunk",
	"eaten", "fallen", "fed", "felt", "fled", "flown", "forbidden", "forgiven",
	"forgotten", "fought", "found", "frozen", "given", "gone", "ground", "grown",
	"held", "heard", "hidden", "hit", "hung", "hurt", "kept", "known", "laid",
	"led", "left", "lent", "lit", "lost", "made", "meant", "met", "mistaken",
	"overcome", "paid", "put", "quit", "read", "rebuilt", "rewritten", "ridden",
	"risen", "run", "rung", "said", "seen", "sent", "set", "shaken", "shed",
	"shot", "shown", "shut", "slain", "sold", "sought", "spent", "split",
	"spoken", "spread", "stolen", "struck", "stuck", "stung", "sung", "sunk",
	"swept", "sworn", "taken", "taught", "thought", "thrown", "told", "torn",
	"understood", "undone", "upheld", "upset", "withdrawn", "won", "worn",
	"wound", "woven", "written",
)

// adjectivalParticiples usually describe a state of the subject rather than
// an action done to it
var adjectivalParticiples = setOf(
	"amazed", "annoyed", "bored", "concerned", "confused", "disappointed",
	"excited", "frightened", "interested", "pleased", "relaxed", "satisfied",
	"scared", "shocked", "surprised", "tired", "worried", "supposed", "used",
	"based", "related", "married", "dedicated", "committed",
)

var edNonVerbs = setOf(
	"hundred", "sacred", "naked", "wicked", "indeed", "kindred", "rugged",
	"beloved", "ragged", "wretched",
)

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
