// Package planner converts internal URL candidates into concrete
// edits. It owns the replacement templates (base-URL concatenation,
// helper function calls, custom patterns), the helper-pattern
// detector that picks a template from the project's bootstrap files,
// and the change planning itself.
//
// Planning is a pure function of (template, candidate,
// classification): it reads no files and mutates nothing, so two
// independent passes over identical inputs always agree.
package planner
