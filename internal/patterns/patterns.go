package patterns

// PatternDef is one weighted text pattern inside a category. The yaml tags
// match the config file's patterns section.
type PatternDef struct {
	Name   string `yaml:"name" json:"name"`
	Regex  string `yaml:"regex" json:"regex"`
	Weight int    `yaml:"weight" json:"weight"`
}

// Category names the rollup cares about.
const (
	CategoryErrorDetection      = "error_detection"
	CategoryCodeQuality         = "code_quality"
	CategoryToolUsage           = "tool_usage"
	CategoryDevelopmentWorkflow = "development_workflow"
)

// Defaults returns the built-in pattern table. Callers own the returned map
// and may merge overrides into a copy; the function builds a fresh value on
// every call so nothing here is shared mutable state.
func Defaults() map[string][]PatternDef {
	return map[string][]PatternDef{
		CategoryErrorDetection: {
			{Name: "test_failures", Regex: `\b(test\s+fail|assertion\s+error|test.*failed|tests?\s+are\s+failing)\b`, Weight: 80},
			{Name: "build_errors", Regex: `\b(build\s+fail|compilation\s+error|cannot\s+build|build\s+error)\b`, Weight: 85},
			{Name: "runtime_errors", Regex: `\b(error|exception|traceback|stack\s+trace|uncaught\s+exception)\b`, Weight: 75},
			{Name: "syntax_errors", Regex: `\b(syntax\s+error|parse\s+error|invalid\s+syntax|unexpected\s+token)\b`, Weight: 70},
			{Name: "type_errors", Regex: `\b(type\s+error|typescript\s+error|mypy\s+error|type\s+mismatch)\b`, Weight: 65},
		},
		CategoryCodeQuality: {
			{Name: "quick_fixes", Regex: `\b(quick\s+fix|hack|workaround|temporary\s+fix)\b`, Weight: 60},
			{Name: "todo_items", Regex: `\b(todo|fixme|hack|temporary)\b`, Weight: 40},
			{Name: "refactoring", Regex: `\b(refactor|clean\s+up|optimize|improve\s+code)\b`, Weight: 50},
			{Name: "code_review", Regex: `\b(code\s+review|peer\s+review|review\s+changes)\b`, Weight: 45},
		},
		CategoryToolUsage: {
			{Name: "file_operations", Regex: `\b(read|write|edit|create|delete)\s+(file|directory)\b`, Weight: 30},
			{Name: "git_operations", Regex: `\b(git\s+commit|git\s+push|git\s+merge|git\s+branch|git\s+checkout)\b`, Weight: 50},
			{Name: "testing", Regex: `\b(run\s+test|pytest|npm\s+test|test\s+suite|unit\s+test)\b`, Weight: 70},
			{Name: "debugging", Regex: `\b(debug|debugger|breakpoint|console\.log|print\s+debug)\b`, Weight: 55},
			{Name: "package_management", Regex: `\b(npm\s+install|pip\s+install|yarn\s+add|composer\s+install)\b`, Weight: 40},
			{Name: "database_operations", Regex: `\b(database|sql|query|migration|schema)\b`, Weight: 45},
		},
		CategoryDevelopmentWorkflow: {
			{Name: "feature_development", Regex: `\b(new\s+feature|implement|add\s+functionality)\b`, Weight: 60},
			{Name: "bug_fixes", Regex: `\b(bug\s+fix|fix\s+issue|resolve\s+problem|patch)\b`, Weight: 75},
			{Name: "documentation", Regex: `\b(documentation|readme|docs|comment|docstring)\b`, Weight: 35},
			{Name: "performance_optimization", Regex: `\b(performance|optimize|speed\s+up|efficient)\b`, Weight: 55},
			{Name: "security", Regex: `\b(security|vulnerability|auth|authorization|encryption)\b`, Weight: 80},
		},
	}
}

// Merge overlays custom categories on top of a base table and returns a new
// map; neither input is mutated. Overrides apply at category granularity: a
// custom category replaces the built-in pattern list wholesale rather than
// merging entry by entry. Config files written for earlier releases rely on
// this, so keep it coarse.
func Merge(base, overrides map[string][]PatternDef) map[string][]PatternDef {
	merged := make(map[string][]PatternDef, len(base)+len(overrides))
	for cat, defs := range base {
		merged[cat] = append([]PatternDef(nil), defs...)
	}
	for cat, defs := range overrides {
		merged[cat] = append([]PatternDef(nil), defs...)
	}
	return merged
}
