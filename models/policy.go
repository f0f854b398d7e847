package models

// Policy is one adjudication policy in the policies store. Text is the body
// fed to the decision engine.
type Policy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Text        string `json:"text"`
}
