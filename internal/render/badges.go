package render

import (
	"sort"
	"strings"
)

type techBadge struct {
	name string
	url  string
}

const shields = "https://img.shields.io/badge/"

// techBadges maps lower-case technology names to shields.io badges.
var techBadges = []techBadge{
	{"python", shields + "Python-3776AB?style=for-the-badge&logo=python&logoColor=white"},
	{"javascript", shields + "JavaScript-F7DF1E?style=for-the-badge&logo=javascript&logoColor=black"},
	{"typescript", shields + "TypeScript-007ACC?style=for-the-badge&logo=typescript&logoColor=white"},
	{"react", shields + "React-20232A?style=for-the-badge&logo=react&logoColor=61DAFB"},
	{"angular", shields + "Angular-DD0031?style=for-the-badge&logo=angular&logoColor=white"},
	{"vue", shields + "Vue.js-35495E?style=for-the-badge&logo=vue.js&logoColor=4FC08D"},
	{"node.js", shields + "Node.js-43853D?style=for-the-badge&logo=node.js&logoColor=white"},
	{"django", shields + "Django-092E20?style=for-the-badge&logo=django&logoColor=white"},
	{"flask", shields + "Flask-000000?style=for-the-badge&logo=flask&logoColor=white"},
	{"express", shields + "Express.js-404D59?style=for-the-badge&logo=express&logoColor=white"},
	{"mongodb", shields + "MongoDB-4EA94B?style=for-the-badge&logo=mongodb&logoColor=white"},
	{"mysql", shields + "MySQL-00000F?style=for-the-badge&logo=mysql&logoColor=white"},
	{"postgresql", shields + "PostgreSQL-316192?style=for-the-badge&logo=postgresql&logoColor=white"},
	{"sqlite", shields + "SQLite-07405E?style=for-the-badge&logo=sqlite&logoColor=white"},
	{"html", shields + "HTML5-E34F26?style=for-the-badge&logo=html5&logoColor=white"},
	{"css", shields + "CSS3-1572B6?style=for-the-badge&logo=css3&logoColor=white"},
	{"bootstrap", shields + "Bootstrap-563D7C?style=for-the-badge&logo=bootstrap&logoColor=white"},
	{"tailwind", shields + "Tailwind_CSS-38B2AC?style=for-the-badge&logo=tailwind-css&logoColor=white"},
	{"jquery", shields + "jQuery-0769AD?style=for-the-badge&logo=jquery&logoColor=white"},
	{"rust", shields + "Rust-000000?style=for-the-badge&logo=rust&logoColor=white"},
	{"dart", shields + "Dart-0175C2?style=for-the-badge&logo=dart&logoColor=white"},
	{"flutter", shields + "Flutter-02569B?style=for-the-badge&logo=flutter&logoColor=white"},
	{"go", shields + "Go-00ADD8?style=for-the-badge&logo=go&logoColor=white"},
	{"c", shields + "C-00599C?style=for-the-badge&logo=c&logoColor=white"},
	{"c++", shields + "C%2B%2B-00599C?style=for-the-badge&logo=c%2B%2B&logoColor=white"},
	{"c#", shields + "C%23-239120?style=for-the-badge&logo=c-sharp&logoColor=white"},
	{"java", shields + "Java-ED8B00?style=for-the-badge&logo=java&logoColor=white"},
	{"php", shields + "PHP-777BB4?style=for-the-badge&logo=php&logoColor=white"},
	{"kotlin", shields + "Kotlin-0095D5?style=for-the-badge&logo=kotlin&logoColor=white"},
	{"swift", shields + "Swift-FA7343?style=for-the-badge&logo=swift&logoColor=white"},
	{"r", shields + "R-276DC3?style=for-the-badge&logo=r&logoColor=white"},
	{"ruby", shields + "Ruby-CC342D?style=for-the-badge&logo=ruby&logoColor=white"},
	{"scala", shields + "Scala-DC322F?style=for-the-badge&logo=scala&logoColor=white"},
	{"perl", shields + "Perl-39457E?style=for-the-badge&logo=perl&logoColor=white"},
	{"elixir", shields + "Elixir-4B275F?style=for-the-badge&logo=elixir&logoColor=white"},
	{"docker", shields + "Docker-2496ED?style=for-the-badge&logo=docker&logoColor=white"},
	{"kubernetes", shields + "Kubernetes-326DE6?style=for-the-badge&logo=kubernetes&logoColor=white"},
	{"aws", shields + "AWS-232F3E?style=for-the-badge&logo=amazon-aws&logoColor=white"},
	{"azure", shields + "Azure-0089D6?style=for-the-badge&logo=microsoft-azure&logoColor=white"},
	{"gcp", shields + "Google_Cloud-4285F4?style=for-the-badge&logo=google-cloud&logoColor=white"},
	{"heroku", shields + "Heroku-430098?style=for-the-badge&logo=heroku&logoColor=white"},
	{"vercel", shields + "Vercel-000000?style=for-the-badge&logo=vercel&logoColor=white"},
	{"firebase", shields + "Firebase-FFCA28?style=for-the-badge&logo=firebase&logoColor=black"},
	{"git", shields + "Git-F05032?style=for-the-badge&logo=git&logoColor=white"},
	{"github", shields + "GitHub-100000?style=for-the-badge&logo=github&logoColor=white"},
	{"gitlab", shields + "GitLab-FCA121?style=for-the-badge&logo=gitlab&logoColor=white"},
	{"bitbucket", shields + "Bitbucket-0052CC?style=for-the-badge&logo=bitbucket&logoColor=white"},
	{"jenkins", shields + "Jenkins-D24939?style=for-the-badge&logo=jenkins&logoColor=white"},
	{"travis", shields + "Travis_CI-3EAAAF?style=for-the-badge&logo=travis-ci&logoColor=white"},
	{"circleci", shields + "CircleCI-343434?style=for-the-badge&logo=circleci&logoColor=white"},
	{"nginx", shields + "Nginx-269539?style=for-the-badge&logo=nginx&logoColor=white"},
	{"apache", shields + "Apache-D22128?style=for-the-badge&logo=apache&logoColor=white"},
	{"graphql", shields + "GraphQL-E10098?style=for-the-badge&logo=graphql&logoColor=white"},
	{"redux", shields + "Redux-593D88?style=for-the-badge&logo=redux&logoColor=white"},
	{"sass", shields + "Sass-CC6699?style=for-the-badge&logo=sass&logoColor=white"},
	{"webpack", shields + "Webpack-8DD6F9?style=for-the-badge&logo=webpack&logoColor=black"},
	{"vite", shields + "Vite-646CFF?style=for-the-badge&logo=vite&logoColor=white"},
	{"babel", shields + "Babel-F9DC3E?style=for-the-badge&logo=babel&logoColor=black"},
	{"figma", shields + "Figma-F24E1E?style=for-the-badge&logo=figma&logoColor=white"},
	{"sketch", shields + "Sketch-F7B500?style=for-the-badge&logo=sketch&logoColor=black"},
	{"xd", shields + "Adobe_XD-FF61F6?style=for-the-badge&logo=adobe-xd&logoColor=white"},
	{"photoshop", shields + "Photoshop-31A8FF?style=for-the-badge&logo=adobe-photoshop&logoColor=white"},
	{"illustrator", shields + "Illustrator-FF9A00?style=for-the-badge&logo=adobe-illustrator&logoColor=white"},
}

func init() {
	// Longest names first so "javascript" wins over "java".
	sort.SliceStable(techBadges, func(i, j int) bool {
		return len(techBadges[i].name) > len(techBadges[j].name)
	})
}

type badgeColor struct {
	keyword string
	color   string
}

// badgeColors is ordered; the last keyword contained in a badge wins.
var badgeColors = []badgeColor{
	{"info", "#3b82f6"},
	{"success", "#10b981"},
	{"warning", "#f59e0b"},
	{"error", "#ef4444"},
	{"primary", "#8b5cf6"},
	{"secondary", "#6b7280"},
	{"feature", "#059669"},
	{"bug", "#dc2626"},
	{"enhancement", "#2563eb"},
	{"docs", "#7c3aed"},
	{"test", "#ea580c"},
}

const defaultBadgeColor = "#6b7280"

// BadgeColor picks the color of a [badge:text] pseudo-badge.
func BadgeColor(text string) string {
	text = strings.ToLower(text)
	color := defaultBadgeColor
	for _, c := range badgeColors {
		if strings.Contains(text, c.keyword) {
			color = c.color
		}
	}
	return color
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// matchTech returns the badge whose name starts at text[i] as a whole word.
func matchTech(text, lower string, i int) (techBadge, bool) {
	if i > 0 && isWordByte(text[i-1]) && isWordByte(text[i]) {
		return techBadge{}, false
	}
	for _, tb := range techBadges {
		end := i + len(tb.name)
		if end > len(lower) || lower[i:end] != tb.name {
			continue
		}
		if end < len(text) && isWordByte(text[end-1]) && isWordByte(text[end]) {
			continue
		}
		return tb, true
	}
	return techBadge{}, false
}
