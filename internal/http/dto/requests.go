package dto

type CreateGroupRequest struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}
