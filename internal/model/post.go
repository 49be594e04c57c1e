package model

import "time"

// Post はユーザーが作成するブログ記事を表す。
// UserIDは作成者への参照。作成者が退会済みの場合はnilになりうる。
type Post struct {
	ID        int64
	Title     string
	Content   string
	UserID    *int64
	CreatedAt time.Time
}

// PostWithAuthor は記事と作成者ユーザー名を結合した一覧表示用の構造体。
// 作成者が退会済みの場合、Authorは空文字列になる。
type PostWithAuthor struct {
	Post
	Author string
}

// Comment は記事に対するコメントを表す。
// AuthorNameは自由記述の表示名であり、Userとは紐付かない。
type Comment struct {
	ID         int64
	PostID     int64
	Content    string
	AuthorName string
	CreatedAt  time.Time
}
