package api

type Entity struct {
	ID string `json:"id"`
}

type ReportArtifact struct {
	Entity   string `json:"entity"`
	DateSpec string `json:"date_spec"`
	Path     string `json:"path"`
}

type Error struct {
	Message string `json:"message"`
}
