package categorize

// NameRule maps a category label to channel names assigned by exact match.
type NameRule struct {
	Category string
	Channels []string
}

// KeywordRule assigns a category when a channel's name or keyword string
// contains one of the comma-separated tokens. Order matters: more specific
// entries must come before generic ones because assignment is
// first-match-wins per channel.
type KeywordRule struct {
	Tokens   string
	Category string
}

// Taxonomy is the ordered fixed-rule configuration for tier-1 assignment.
// It is passed into the engine as a value so tests can substitute small
// fixture tables.
type Taxonomy struct {
	Names    []NameRule
	Keywords []KeywordRule
}

// DefaultTaxonomy returns the built-in category tables. Channels listed by
// name are ones that keyword rules easily misclassify.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Names: []NameRule{
			{"Chess", []string{"Magnus Carlsen"}},
			{"Podcasts", []string{"Lex Fridman", "Andrew Huberman", "PowerfulJRE", "JRE Clips"}},
			{"Science and Technology", []string{
				"ColdFusion", "Neuralink", "NASA", "Arvin Ash", "SpaceX", "Up and Atom",
				"Cool Worlds", "Everyday Astronaut", "Steve Mould"}},
			{"Entertainment", []string{
				"MrBeast", "The Slow Mo Guys", "The Slow Mo Guys 2", "Top Fives", "FORMULA 1", "GoPro"}},
			{"Outdoor and Backpacking", nil},
			{"Building and DIY", []string{"Mark Rober", "Erik Grankvist", "Martijn Doolaard"}},
			{"AI and Programming", []string{
				"AI Explained", "Two Minute Papers", "Robert Miles", "Sebastian Lague", "Matthew Berman"}},
			{"Education and Learning", []string{
				"Big Think", "UsefulCharts", "TED-Ed", "Geography Now", "TEDx Talks", "Stanford",
				"Talks at Google", "WIRED", "Kurzgesagt – In a Nutshell", "Be Smart"}},
			{"Tech Reviews", []string{"Emmett Short", "Marques Brownlee", "Adam Savage’s Tested"}},
			{"Travel and Vlogs", nil},
			{"Documentaries and Movies", []string{
				"VICE News", "VICE", "Venture City", "Smithsonian Channel", "DUST"}},
			{"Music Videos", []string{"Above & Beyond", "Violet Orlandi"}},
			{"News and Politics", []string{"United Nations", "The White House"}},
			{"Psychology and Philosophy", []string{"Pursuit of Wonder", "Better Ideas", "Closer to Truth"}},
		},
		Keywords: []KeywordRule{
			{"chess", "Chess"},
			{"outdoor,camping,backpacking,bushcraft", "Outdoor and Backpacking"},
			{"philosophy,exurb", "Psychology and Philosophy"},
			{"microsoft,data, AI ,python", "AI and Programming"},
			{"scientist,science", "Science and Technology"},
			{"university,education", "Education and Learning"},
			{"movie,history,documentary,trailers", "Documentaries and Movies"},
			{"primitive,woodworking", "Building and DIY"},
			{"podcast", "Podcasts"},
			{"virtual reality", "Tech Reviews"},
			{"music video", "Music Videos"},
			{"news,politics,bloomberg", "News and Politics"},
			{"travel,vlog", "Travel and Vlogs"},
		},
	}
}
