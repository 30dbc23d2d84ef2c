package terms

import "github.com/poiesic/taskquery/core"

// Status category keys shipped with the resolver.
const (
	CategoryOpen       = "open"
	CategoryInProgress = "inProgress"
	CategoryCompleted  = "completed"
	CategoryCancelled  = "cancelled"
)

// LanguageTerms are the words one language contributes to property recognition.
type LanguageTerms struct {
	// Priority maps a priority level (1-4) to natural-language phrases.
	Priority map[int][]string
	// Dates maps a named date key (see core.Named*) or weekday to phrases.
	Dates map[string][]string
	// StatusAliases maps a status category key to query aliases.
	StatusAliases map[string][]string
}

// Builtins are the fallback term tables merged under user configuration.
type Builtins struct {
	Languages        map[string]LanguageTerms
	StatusCategories []StatusCategory
}

// DefaultBuiltins returns the built-in term tables.
func DefaultBuiltins() Builtins {
	return Builtins{
		StatusCategories: []StatusCategory{
			{Key: CategoryOpen, DisplayName: "Open", Symbols: []string{" "}, Weight: 1.0},
			{Key: CategoryInProgress, DisplayName: "In progress", Symbols: []string{"/"}, Weight: 0.8},
			{Key: CategoryCompleted, DisplayName: "Completed", Symbols: []string{"x", "X"}, Weight: 0.2},
			{Key: CategoryCancelled, DisplayName: "Cancelled", Symbols: []string{"-"}, Weight: 0.1},
		},
		Languages: map[string]LanguageTerms{
			"en": {
				Priority: map[int][]string{
					1: {"highest priority", "top priority", "urgent", "critical"},
					2: {"high priority", "important"},
					3: {"medium priority", "normal priority"},
					4: {"low priority", "lowest priority"},
				},
				Dates: map[string][]string{
					core.NamedToday:     {"today"},
					core.NamedTomorrow:  {"tomorrow"},
					core.NamedYesterday: {"yesterday"},
					core.NamedOverdue:   {"overdue", "past due"},
					core.NamedThisWeek:  {"this week"},
					core.NamedNextWeek:  {"next week"},
					core.NamedLastWeek:  {"last week"},
					core.NamedThisMonth: {"this month"},
					core.NamedNextMonth: {"next month"},
					core.NamedNoDate:    {"no due date", "no date", "undated"},
					core.NamedAnyDate:   {"has due date", "with due date"},
					"monday":            {"monday"},
					"tuesday":           {"tuesday"},
					"wednesday":         {"wednesday"},
					"thursday":          {"thursday"},
					"friday":            {"friday"},
					"saturday":          {"saturday"},
					"sunday":            {"sunday"},
				},
				StatusAliases: map[string][]string{
					CategoryOpen:       {"todo", "pending", "incomplete", "not started"},
					CategoryInProgress: {"wip", "in progress", "doing", "ongoing", "started"},
					CategoryCompleted:  {"done", "finished", "complete", "closed"},
					CategoryCancelled:  {"canceled", "abandoned", "dropped", "wontfix"},
				},
			},
			"zh": {
				Priority: map[int][]string{
					1: {"最高优先级", "紧急"},
					2: {"高优先级", "重要"},
					3: {"中优先级", "中等优先级"},
					4: {"低优先级"},
				},
				Dates: map[string][]string{
					core.NamedToday:     {"今天"},
					core.NamedTomorrow:  {"明天"},
					core.NamedYesterday: {"昨天"},
					core.NamedOverdue:   {"已过期", "过期", "逾期"},
					core.NamedThisWeek:  {"本周", "这周"},
					core.NamedNextWeek:  {"下周"},
					core.NamedLastWeek:  {"上周"},
					core.NamedThisMonth: {"本月", "这个月"},
					core.NamedNextMonth: {"下个月", "下月"},
					core.NamedNoDate:    {"无日期", "没有日期"},
					"monday":            {"周一", "星期一"},
					"tuesday":           {"周二", "星期二"},
					"wednesday":         {"周三", "星期三"},
					"thursday":          {"周四", "星期四"},
					"friday":            {"周五", "星期五"},
					"saturday":          {"周六", "星期六"},
					"sunday":            {"周日", "星期日", "星期天"},
				},
				StatusAliases: map[string][]string{
					CategoryOpen:       {"未完成", "待办"},
					CategoryInProgress: {"进行中"},
					CategoryCompleted:  {"已完成", "完成"},
					CategoryCancelled:  {"已取消", "取消"},
				},
			},
			"de": {
				Priority: map[int][]string{
					1: {"höchste priorität", "dringend"},
					2: {"hohe priorität", "wichtig"},
					3: {"mittlere priorität"},
					4: {"niedrige priorität"},
				},
				Dates: map[string][]string{
					core.NamedToday:     {"heute"},
					core.NamedTomorrow:  {"morgen"},
					core.NamedYesterday: {"gestern"},
					core.NamedOverdue:   {"überfällig"},
					core.NamedThisWeek:  {"diese woche"},
					core.NamedNextWeek:  {"nächste woche"},
					core.NamedLastWeek:  {"letzte woche"},
					core.NamedThisMonth: {"diesen monat"},
					core.NamedNextMonth: {"nächsten monat"},
					core.NamedNoDate:    {"ohne datum"},
					"monday":            {"montag"},
					"tuesday":           {"dienstag"},
					"wednesday":         {"mittwoch"},
					"thursday":          {"donnerstag"},
					"friday":            {"freitag"},
					"saturday":          {"samstag"},
					"sunday":            {"sonntag"},
				},
				StatusAliases: map[string][]string{
					CategoryOpen:       {"offen"},
					CategoryInProgress: {"in arbeit"},
					CategoryCompleted:  {"erledigt", "fertig"},
					CategoryCancelled:  {"abgebrochen"},
				},
			},
			"fr": {
				Priority: map[int][]string{
					1: {"priorité maximale"},
					2: {"priorité haute"},
					3: {"priorité moyenne"},
					4: {"priorité basse"},
				},
				Dates: map[string][]string{
					core.NamedToday:     {"aujourd'hui"},
					core.NamedTomorrow:  {"demain"},
					core.NamedYesterday: {"hier"},
					core.NamedOverdue:   {"en retard"},
					core.NamedThisWeek:  {"cette semaine"},
					core.NamedNextWeek:  {"semaine prochaine"},
					core.NamedThisMonth: {"ce mois"},
					core.NamedNextMonth: {"mois prochain"},
					core.NamedNoDate:    {"sans date"},
					"monday":            {"lundi"},
					"tuesday":           {"mardi"},
					"wednesday":         {"mercredi"},
					"thursday":          {"jeudi"},
					"friday":            {"vendredi"},
					"saturday":          {"samedi"},
					"sunday":            {"dimanche"},
				},
				StatusAliases: map[string][]string{
					CategoryOpen:       {"ouvert", "à faire"},
					CategoryInProgress: {"en cours"},
					CategoryCompleted:  {"terminé", "fait"},
					CategoryCancelled:  {"annulé"},
				},
			},
			"es": {
				Priority: map[int][]string{
					1: {"prioridad máxima", "urgente"},
					2: {"prioridad alta", "importante"},
					3: {"prioridad media"},
					4: {"prioridad baja"},
				},
				Dates: map[string][]string{
					core.NamedToday:     {"hoy"},
					core.NamedTomorrow:  {"mañana"},
					core.NamedYesterday: {"ayer"},
					core.NamedOverdue:   {"vencido", "vencidas", "atrasado"},
					core.NamedThisWeek:  {"esta semana"},
					core.NamedNextWeek:  {"próxima semana"},
					core.NamedThisMonth: {"este mes"},
					core.NamedNextMonth: {"próximo mes"},
					core.NamedNoDate:    {"sin fecha"},
					"monday":            {"lunes"},
					"tuesday":           {"martes"},
					"wednesday":         {"miércoles"},
					"thursday":          {"jueves"},
					"friday":            {"viernes"},
					"saturday":          {"sábado"},
					"sunday":            {"domingo"},
				},
				StatusAliases: map[string][]string{
					CategoryOpen:       {"pendiente", "abierto"},
					CategoryInProgress: {"en progreso"},
					CategoryCompleted:  {"hecho", "terminado", "completado"},
					CategoryCancelled:  {"cancelado"},
				},
			},
		},
	}
}
