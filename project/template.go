package project

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"
	"text/template/parse"
)

// templateEngine renders gdpack's synthesized text artifacts — the
// project.binary settings overlay, in particular — through text/template,
// resolving shared {{define}}-style named templates in dependency order
// first. This mirrors manifest/template.go's templateEngine/sortLocals: a
// define that invokes another define must be registered after the define
// it depends on, and the caller shouldn't have to order the map itself.
type templateEngine struct {
	tmpl *template.Template
}

// newTemplateEngine parses every named template in defines and returns an
// engine able to execute any of them by name.
func newTemplateEngine(defines map[string]string) (*templateEngine, error) {
	order, err := sortLocals(defines)
	if err != nil {
		return nil, err
	}
	root := template.New("root").Option("missingkey=error")
	for _, name := range order {
		if _, err := root.New(name).Parse(defines[name]); err != nil {
			return nil, fmt.Errorf("project: parsing template %q: %w", name, err)
		}
	}
	return &templateEngine{tmpl: root}, nil
}

func (e *templateEngine) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("project: rendering template %q: %w", name, err)
	}
	return buf.String(), nil
}

// sortLocals topologically orders defines by their {{template "x"}}
// references so each name is registered only after every local template it
// invokes.
func sortLocals(defines map[string]string) ([]string, error) {
	deps := make(map[string][]string, len(defines))
	for name, body := range defines {
		t, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("project: parsing template %q: %w", name, err)
		}
		deps[name] = templateRefs(t.Tree)
	}

	var order []string
	state := map[string]int{} // 0 unvisited, 1 in-progress, 2 done
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("project: cyclic template reference at %q", name)
		}
		state[name] = 1
		for _, dep := range deps[name] {
			if _, ok := defines[dep]; ok {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		state[name] = 2
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// templateRefs walks a parsed template's node tree collecting the names of
// every {{template "x"}} invocation.
func templateRefs(t *parse.Tree) []string {
	if t == nil || t.Root == nil {
		return nil
	}
	var refs []string
	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch v := n.(type) {
		case *parse.ListNode:
			if v == nil {
				return
			}
			for _, c := range v.Nodes {
				walk(c)
			}
		case *parse.TemplateNode:
			refs = append(refs, v.Name)
		case *parse.IfNode:
			walk(v.List)
			walk(v.ElseList)
		case *parse.RangeNode:
			walk(v.List)
			walk(v.ElseList)
		case *parse.WithNode:
			walk(v.List)
			walk(v.ElseList)
		}
	}
	walk(t.Root)
	return refs
}
