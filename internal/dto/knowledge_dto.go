package dto

type UploadKnowledgeResponse struct {
	Count  int    `json:"count"`
	Source string `json:"source"`
	Notice string `json:"notice"`
}

type KnowledgeSummaryResponse struct {
	Source   string   `json:"source"`
	Count    int      `json:"count"`
	Keywords []string `json:"keywords"`
}

type ReloadKnowledgeResponse struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
	Notice string `json:"notice"`
}
