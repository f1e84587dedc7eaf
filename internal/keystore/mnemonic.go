package keystore

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/multisig/internal/hdkey"
	"github.com/mrz1836/multisig/internal/msigcrypto"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

var (
	// whitespaceRegex matches one or more whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// numberedListRegex matches numbered list prefixes like "1." "2)" "3:"
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)

	// bulletListRegex matches bullet prefixes like "- " "* " "• "
	bulletListRegex = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// GenerateMnemonic creates a new BIP39 mnemonic phrase from the process
// random source. wordCount must be 12 (128 bits) or 24 (256 bits).
func GenerateMnemonic(wordCount int) (string, error) {
	var size int
	switch wordCount {
	case 12:
		size = 16
	case 24:
		size = 32
	default:
		return "", msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"words":  strconv.Itoa(wordCount),
			"reason": "word count must be 12 or 24",
		})
	}

	entropy, err := msigcrypto.RandomBytes(size)
	if err != nil {
		return "", msigerr.Wrap(err, "reading entropy")
	}
	defer msigcrypto.Zero(entropy)

	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks word count, word validity and checksum.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonicInput(mnemonic)
	if normalized == "" {
		return msigerr.ErrInvalidMnemonic
	}

	// Fast word count check before the checksum.
	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return msigerr.WithDetails(msigerr.ErrInvalidMnemonic, map[string]string{
			"words": strconv.Itoa(len(words)),
		})
	}

	if typos := DetectTypos(normalized); len(typos) > 0 {
		return msigerr.WithSuggestion(msigerr.ErrInvalidMnemonic, FormatTypoSuggestions(typos))
	}

	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return msigerr.WithSuggestion(msigerr.ErrInvalidMnemonic, "checksum mismatch: check the word order")
	}
	return nil
}

// NormalizeMnemonicInput lowercases the input, strips list numbering and
// bullets, treats commas as spaces and collapses whitespace.
func NormalizeMnemonicInput(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// MnemonicToSeed validates mnemonic and derives its 64-byte BIP39 seed.
// The caller must Destroy the returned seed.
func MnemonicToSeed(mnemonic, passphrase string) (*hdkey.Seed, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	raw := bip39.NewSeed(NormalizeMnemonicInput(mnemonic), passphrase)
	defer msigcrypto.Zero(raw)
	return hdkey.NewSeed(raw)
}

// IsValidWord checks if a word is in the BIP39 word list.
func IsValidWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}

// MaxTypoDistance is the maximum Levenshtein distance to consider a suggestion.
const MaxTypoDistance = 2

// TypoInfo describes a word that is not in the BIP39 list.
type TypoInfo struct {
	// Index is the word position in the mnemonic (0-based).
	Index int
	// Word is the original (possibly misspelled) word.
	Word string
	// Suggestion is the closest BIP39 word, or empty if none found.
	Suggestion string
	// Distance is the Levenshtein distance to the suggestion.
	Distance int
}

// SuggestWord finds the closest BIP39 word to the input. It returns ""
// when nothing is within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	minDist := math.MaxInt
	var suggestion string
	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// DetectTypos returns every word of mnemonic that is not a BIP39 word,
// with the closest suggestion.
func DetectTypos(mnemonic string) []TypoInfo {
	words := strings.Fields(NormalizeMnemonicInput(mnemonic))
	var typos []TypoInfo
	for i, word := range words {
		if IsValidWord(word) {
			continue
		}
		suggestion := SuggestWord(word)
		distance := 0
		if suggestion != "" {
			distance = levenshtein.ComputeDistance(word, suggestion)
		}
		typos = append(typos, TypoInfo{
			Index:      i,
			Word:       word,
			Suggestion: suggestion,
			Distance:   distance,
		})
	}
	return typos
}

// FormatTypoSuggestions formats typo information into human-readable suggestions.
func FormatTypoSuggestions(typos []TypoInfo) string {
	var b strings.Builder
	for i, typo := range typos {
		if i > 0 {
			b.WriteByte('\n')
		}
		// Word position is 1-indexed for human readability
		b.WriteString("Word ")
		b.WriteString(strconv.Itoa(typo.Index + 1))
		b.WriteString(": '")
		b.WriteString(typo.Word)
		b.WriteByte('\'')
		if typo.Suggestion != "" {
			b.WriteString(" - did you mean '")
			b.WriteString(typo.Suggestion)
			b.WriteString("'?")
		} else {
			b.WriteString(" is not a valid BIP39 word")
		}
	}
	return b.String()
}
