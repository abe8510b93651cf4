package serpfeed

// The search feed answers with whatever panel Google rendered for the query.
// None of these shapes is guaranteed to be present; extraction tries every
// shape in order and concatenates whatever fixture pairs each one yields.

type rawResponse struct {
	SportsResults  *sportsResults  `json:"sports_results"`
	KnowledgeGraph *knowledgeGraph `json:"knowledge_graph"`
	OrganicResults []organicResult `json:"organic_results"`
}

type sportsResults struct {
	Title         string      `json:"title"`
	League        string      `json:"league"`
	Thumbnail     string      `json:"thumbnail"`
	GameSpotlight *panelGame  `json:"game_spotlight"`
	Games         []panelGame `json:"games"`
}

type panelGame struct {
	Tournament      string           `json:"tournament"`
	League          string           `json:"league"`
	Stadium         string           `json:"stadium"`
	Venue           string           `json:"venue"`
	Status          string           `json:"status"`
	Date            string           `json:"date"`
	Time            string           `json:"time"`
	Teams           []panelTeam      `json:"teams"`
	VideoHighlights *videoHighlights `json:"video_highlights"`
}

type panelTeam struct {
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
}

type videoHighlights struct {
	Link string `json:"link"`
}

type knowledgeGraph struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}
