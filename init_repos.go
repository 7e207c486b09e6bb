// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB bağlantısını alır ve interface döner.
package main

import (
	"database/sql"

	"github.com/gulfreturn/pulse/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
//
// Neden struct? Ayrı ayrı değişkenler yerine tek container kullanmak
// fonksiyon imzalarını temiz tutar; yeni repository eklendiğinde sadece
// struct + initRepositories güncellenir.
type Repositories struct {
	User         repository.UserRepository
	Connection   repository.ConnectionRepository
	Chat         repository.ChatRepository
	Message      repository.MessageRepository
	Notification repository.NotificationRepository
	Social       repository.SocialRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
//
// Go'nun sql.DB'si thread-safe connection pool'dur — aynı bağlantının
// tüm repository'ler arasında paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(conn),
		Connection:   repository.NewSQLiteConnectionRepo(conn),
		Chat:         repository.NewSQLiteChatRepo(conn),
		Message:      repository.NewSQLiteMessageRepo(conn),
		Notification: repository.NewSQLiteNotificationRepo(conn),
		Social:       repository.NewSQLiteSocialRepo(conn),
	}
}
