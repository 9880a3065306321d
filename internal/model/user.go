// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// プロビジョニング時に作成され、通常運用中は不変。
// Passwordはbcryptハッシュを想定するが、旧データのプレーンテキストも許容する。
type User struct {
	ID        string `json:"userId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Profile はパスワードを含まないユーザーの公開情報。
// ログインレスポンスおよびクライアント側セッションに保持される。
type Profile struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile はUserから公開情報を抽出する。
func (u *User) Profile() Profile {
	return Profile{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
