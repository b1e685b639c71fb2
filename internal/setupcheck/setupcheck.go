// Package setupcheck inspects a site directory before deployment and
// reports which required files, directories and settings are in place.
package setupcheck

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"
)

// Level is the outcome of one check line.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Warning Level = "warning"
	Info    Level = "info"
)

// Line is one reported check.
type Line struct {
	Level   Level
	Message string
}

// Section groups lines under a heading.
type Section struct {
	Title string
	Lines []Line
}

func (s *Section) add(level Level, format string, args ...any) {
	s.Lines = append(s.Lines, Line{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Manifest lists what a deployable site must and may contain. Entries may
// be doublestar patterns such as "js/*.js".
type Manifest struct {
	// Page is the landing page searched for placeholders and images.
	Page string
	// LocalEnv is the developer's untracked environment file.
	LocalEnv string

	RequiredFiles []string
	RequiredDirs  []string
	OptionalFiles []string
	Placeholders  []Placeholder
	Checklist     []string
}

// Placeholder is template text that should have been replaced.
type Placeholder struct {
	Text    string
	Warning string
}

// DefaultManifest describes the static portfolio site: HTML pages, CSS and
// JS at the root, deployed to Vercel.
func DefaultManifest() Manifest {
	return Manifest{
		Page:     "index.html",
		LocalEnv: ".env.local",
		RequiredFiles: []string{
			"index.html",
			"projects.html",
			"about.html",
			"contact.html",
			"css/main.css",
			"css/components.css",
			"css/responsive.css",
			"js/main.js",
			"js/navigation.js",
			"js/particles.js",
			"js/contact-form.js",
			"js/projects-filter.js",
			"vercel.json",
			"README.md",
			"DEPLOYMENT.md",
			".env.example",
		},
		RequiredDirs: []string{"css", "js", "images", ".github/workflows"},
		OptionalFiles: []string{
			".gitignore",
			".env.local",
			".env.production",
		},
		Placeholders: []Placeholder{
			{Text: "John Doe", Warning: "Found placeholder name - update to your name"},
			{Text: "YOUR_SUPABASE_FUNCTIONS_URL", Warning: "Found Supabase placeholder"},
		},
		Checklist: []string{
			"Update portfolio name",
			"Add project images to /images/",
			"Configure .env.local with Supabase credentials",
			"Test theme switching locally",
			"Test form validation locally",
			"Verify all links work",
			"Set up Vercel project",
			"Configure GitHub secrets for CI/CD",
			"Test deployment to Vercel",
		},
	}
}

// ServerManifest describes the server-rendered site: a Go module with
// embedded templates, configured from the environment.
func ServerManifest() Manifest {
	return Manifest{
		Page:     "templates/index.html",
		LocalEnv: ".env",
		RequiredFiles: []string{
			"go.mod",
			"main.go",
			"templates/*.html",
			".env.example",
		},
		RequiredDirs: []string{"templates", "internal"},
		OptionalFiles: []string{
			"go.sum",
			"config.yaml",
			"projects.yaml",
			"images/*",
		},
		Placeholders: []Placeholder{
			{Text: "John Doe", Warning: "Found placeholder name - update to your name"},
		},
		Checklist: []string{
			"Set ADMIN_PASSWORD",
			"Set SMTP_USER, SMTP_PASS and TO_EMAIL for contact notifications",
			"Point PROJECTS_FILE at your project feed",
			"Test theme switching locally",
			"Test form validation locally",
			"Verify all links work",
		},
	}
}

// Layouts names the manifests the validator knows.
var Layouts = map[string]func() Manifest{
	"static": DefaultManifest,
	"server": ServerManifest,
}

// Report is the full result of a run.
type Report struct {
	Sections []Section
	FilesOK  bool
	DirsOK   bool
}

// OK reports whether every required file and directory exists.
func (r Report) OK() bool {
	return r.FilesOK && r.DirsOK
}

// ExitCode is 0 when OK, 1 otherwise.
func (r Report) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

// Run checks root against m.
func Run(root string, m Manifest) Report {
	fsys := os.DirFS(root)
	files, filesOK := checkFiles(fsys, m.RequiredFiles)
	dirs, dirsOK := checkDirs(fsys, m.RequiredDirs)

	r := Report{FilesOK: filesOK, DirsOK: dirsOK}
	r.Sections = append(r.Sections,
		files,
		dirs,
		checkOptional(fsys, m.OptionalFiles),
		checkContent(fsys, m.Page, m.Placeholders),
		checkConfig(fsys, m.LocalEnv),
	)

	checklist := Section{Title: "Deployment Checklist"}
	for _, item := range m.Checklist {
		checklist.add(Warning, "[ ] %s", item)
	}
	r.Sections = append(r.Sections, checklist)
	return r
}

// matches expands name as a pattern; a plain name matches itself.
func matches(fsys fs.FS, name string) []string {
	if !strings.ContainsAny(name, "*?[{") {
		if _, err := fs.Stat(fsys, name); err == nil {
			return []string{name}
		}
		return nil
	}
	got, err := doublestar.Glob(fsys, name)
	if err != nil {
		return nil
	}
	return got
}

func checkFiles(fsys fs.FS, names []string) (Section, bool) {
	s := Section{Title: "Checking Required Files"}
	ok := true
	for _, name := range names {
		found := matches(fsys, name)
		if len(found) == 0 {
			s.add(Error, "%s - NOT FOUND", name)
			ok = false
			continue
		}
		for _, f := range found {
			info, err := fs.Stat(fsys, f)
			if err != nil || info.IsDir() {
				s.add(Error, "%s - NOT FOUND", f)
				ok = false
				continue
			}
			s.add(Success, "%s (%.2fKB)", f, float64(info.Size())/1024)
		}
	}
	return s, ok
}

func checkDirs(fsys fs.FS, names []string) (Section, bool) {
	s := Section{Title: "Checking Directories"}
	ok := true
	for _, name := range names {
		info, err := fs.Stat(fsys, name)
		if err != nil || !info.IsDir() {
			s.add(Error, "%s/ - NOT FOUND", name)
			ok = false
			continue
		}
		s.add(Success, "%s/", name)
	}
	return s, ok
}

func checkOptional(fsys fs.FS, names []string) Section {
	s := Section{Title: "Checking Optional Files"}
	for _, name := range names {
		if len(matches(fsys, name)) > 0 {
			s.add(Success, "%s", name)
		} else {
			s.add(Warning, "%s - Not configured (optional)", name)
		}
	}
	return s
}

func checkContent(fsys fs.FS, page string, placeholders []Placeholder) Section {
	s := Section{Title: "Checking Content Quality"}
	if page == "" {
		page = "index.html"
	}
	f, err := fsys.Open(page)
	if err != nil {
		return s
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		s.add(Error, "%s could not be parsed: %v", page, err)
		return s
	}

	html, _ := doc.Html()
	for _, p := range placeholders {
		if strings.Contains(html, p.Text) {
			s.add(Warning, "%s", p.Warning)
		}
	}

	projectImages := doc.Find(`img[src*="images/project"], img[data-src*="images/project"]`).Length()
	if projectImages > 0 {
		s.add(Success, "Project images referenced")
	} else {
		s.add(Warning, "No project images found - add to /images/")
	}
	return s
}

func checkConfig(fsys fs.FS, localEnv string) Section {
	s := Section{Title: "Checking Configuration"}

	if data, err := fs.ReadFile(fsys, "vercel.json"); err == nil {
		var v any
		if json.Unmarshal(data, &v) == nil {
			s.add(Success, "vercel.json is valid")
		} else {
			s.add(Error, "vercel.json has syntax errors")
		}
	}

	if exists(fsys, ".env.example") {
		s.add(Success, ".env.example configured")
	} else {
		s.add(Error, ".env.example not found")
	}

	if localEnv == "" {
		localEnv = ".env.local"
	}
	if exists(fsys, localEnv) {
		s.add(Success, "%s exists (development)", localEnv)
	} else {
		s.add(Warning, "%s not found - create from .env.example", localEnv)
	}

	if exists(fsys, filepath.ToSlash(".github/workflows/deploy.yml")) {
		s.add(Success, "GitHub Actions workflow configured")
	}
	return s
}

func exists(fsys fs.FS, name string) bool {
	_, err := fs.Stat(fsys, name)
	return err == nil
}
