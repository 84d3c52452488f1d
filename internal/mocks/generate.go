package mocks

//go:generate mockery --name FileStore --srcpkg github.com/Tab-and-Quill/spotify-music-history/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
