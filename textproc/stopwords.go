package textproc

// Stop words per language. Entries are stored case-folded.
var stopWords = map[string]map[string]bool{
	"en": set(
		"the", "a", "an", "be", "is", "are", "was", "were", "to", "of", "and", "in",
		"that", "have", "has", "it", "for", "not", "on", "with", "as", "you", "do",
		"at", "this", "but", "by", "from", "or", "me", "my", "i", "we", "our", "all",
		"any", "show", "find", "list", "get", "give", "please", "what", "which",
		"about", "task", "tasks", "todo", "todos", "some", "can", "could", "would",
		"should", "there", "their", "them", "these", "those", "into", "its", "so",
	),
	"zh": set(
		"的", "了", "和", "是", "在", "我", "有", "就", "不", "也", "很", "都", "与", "及",
		"或", "吗", "吧", "呢", "啊", "个", "这", "那", "请", "我的", "所有", "显示",
		"查找", "关于", "任务", "一下", "哪些", "什么", "帮我", "给我", "列出",
	),
	"ja": set(
		"の", "に", "は", "を", "た", "が", "で", "て", "と", "し", "れ", "さ", "ある",
		"いる", "する", "です", "ます", "タスク",
	),
	"de": set(
		"der", "die", "das", "und", "ist", "in", "zu", "den", "mit", "von", "für",
		"auf", "ein", "eine", "nicht", "ich", "sie", "es", "im", "dem", "des", "alle",
		"meine", "zeige", "aufgabe", "aufgaben", "oder", "über",
	),
	"fr": set(
		"le", "la", "les", "de", "des", "du", "un", "une", "et", "est", "en", "à",
		"pour", "sur", "avec", "ne", "pas", "je", "mes", "mon", "tous", "toutes",
		"tâche", "tâches", "ou", "dans", "au", "aux",
	),
	"es": set(
		"el", "la", "los", "las", "de", "del", "un", "una", "y", "es", "en", "a",
		"para", "con", "por", "no", "mis", "mi", "todas", "todos", "tarea", "tareas",
		"o", "que", "al",
	),
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[Fold(w)] = true
	}
	return m
}

// IsStopWord reports whether token is a stop word in any of the languages.
func IsStopWord(token string, languages []string) bool {
	folded := Fold(token)
	for _, lang := range languages {
		if stopWords[PrimaryLanguage(lang)][folded] {
			return true
		}
	}
	return false
}

// FilterStopWords drops tokens that are stop words in any of the languages.
// A token survives only if it is content-bearing in every configured language.
func FilterStopWords(tokens []string, languages []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" || IsStopWord(token, languages) {
			continue
		}
		filtered = append(filtered, token)
	}
	return filtered
}

// SupportedLanguages lists the languages with built-in stop words.
func SupportedLanguages() []string {
	return []string{"de", "en", "es", "fr", "ja", "zh"}
}
