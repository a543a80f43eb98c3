package handler

import (
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/chat"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/db"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/storage"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/configs"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/pow"
)

type AppDeps struct {
	Config  *configs.AppConfig
	DB      *db.Queries
	Chat    *chat.Server
	Storage storage.AttachmentService
	Pow     *pow.PoWManager
}
