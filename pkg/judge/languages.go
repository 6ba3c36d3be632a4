package judge

import "strings"

// Language describes how to build and run a program in the sandbox.
type Language struct {
	Name       string
	Image      string
	SourceFile string
	Compile    string
	Run        string
	Env        []string
}

var languages = map[string]Language{
	"python": {
		Name:       "python",
		Image:      "python:3.12-alpine",
		SourceFile: "main.py",
		Run:        "python3 main.py",
	},
	"javascript": {
		Name:       "javascript",
		Image:      "node:20-alpine",
		SourceFile: "main.js",
		Run:        "node main.js",
	},
	"go": {
		Name:       "go",
		Image:      "golang:1.22-alpine",
		SourceFile: "main.go",
		Compile:    "go build -o main main.go",
		Run:        "./main",
		Env:        []string{"GOCACHE=/tmp/gocache", "GOPATH=/tmp/go", "CGO_ENABLED=0"},
	},
	"java": {
		Name:       "java",
		Image:      "eclipse-temurin:21-jdk-alpine",
		SourceFile: "Main.java",
		Compile:    "javac Main.java",
		Run:        "java -Xss64m Main",
	},
	"cpp": {
		Name:       "cpp",
		Image:      "gcc:13",
		SourceFile: "main.cpp",
		Compile:    "g++ -O2 -std=c++17 -o main main.cpp",
		Run:        "./main",
	},
	"c": {
		Name:       "c",
		Image:      "gcc:13",
		SourceFile: "main.c",
		Compile:    "gcc -O2 -std=c11 -o main main.c -lm",
		Run:        "./main",
	},
}

var languageAliases = map[string]string{
	"py":      "python",
	"python3": "python",
	"js":      "javascript",
	"node":    "javascript",
	"golang":  "go",
	"c++":     "cpp",
}

// LookupLanguage resolves a language tag, accepting a few common aliases.
func LookupLanguage(tag string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if alias, ok := languageAliases[key]; ok {
		key = alias
	}
	lang, ok := languages[key]
	return lang, ok
}

// SupportedLanguages lists the canonical language tags.
func SupportedLanguages() []string {
	return []string{"python", "javascript", "go", "java", "cpp", "c"}
}
