package extract

import "github.com/poiesic/taskquery/textproc"

// Keywords tokenizes the residual text, removes stop words for every
// language and returns the folded, de-duplicated keywords in query order.
func Keywords(residual string, languages []string) []string {
	hint := ""
	if len(languages) == 1 {
		hint = languages[0]
	}
	tokens := textproc.FilterStopWords(textproc.Tokenize(residual, hint), languages)

	seen := make(map[string]bool, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		k := textproc.Fold(token)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}
	return keywords
}
