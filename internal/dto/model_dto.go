package dto

type ModelResponse struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Default  bool   `json:"default"`
}
