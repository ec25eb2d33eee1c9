package dto

type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	IPAddress  string `json:"-"`
	UserAgent  string `json:"-"`
}
