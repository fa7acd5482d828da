package dump

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/report"
	"github.com/retroenv/texpool/internal/texpool"
	"golang.org/x/image/webp"
)

func TestThumbnail(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{w: 16, h: 16, wantW: 16, wantH: 16},
		{w: 64, h: 32, wantW: 32, wantH: 16},
		{w: 8, h: 128, wantW: 2, wantH: 32},
		{w: 512, h: 1, wantW: 32, wantH: 1},
	}

	for _, tt := range tests {
		img := Thumbnail(image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h)), 32)
		assert.Equal(t, tt.wantW, img.Bounds().Dx())
		assert.Equal(t, tt.wantH, img.Bounds().Dy())
	}
}

func TestWrite(t *testing.T) {
	logger := log.NewTestLogger(t)
	backend := gpu.NewHeadless()
	placeholder, err := gpu.UploadPlaceholder(backend)
	assert.NoError(t, err)
	pool := texpool.New(logger, texpool.Config{Placeholder: placeholder})

	handle, err := backend.Upload(64, 64, make([]byte, 4*64*64))
	assert.NoError(t, err)
	_, err = pool.RegisterAndBind(texpool.Input{Name: "lvl/ground", Handle: handle, W: 64, H: 64}, 5)
	assert.NoError(t, err)
	_, err = pool.RegisterAndBind(texpool.Input{Name: "gone", Handle: 500, W: 1, H: 1}, 6)
	assert.NoError(t, err)
	pool.Detach("gone", 500)
	_, err = pool.RegisterAndBind(texpool.Input{Name: "lost", Handle: 501, W: 1, H: 1}, 7)
	assert.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	d := New(logger, backend, dir, 16)
	n, err := d.Write(report.Rows(pool, report.Filter{}))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.Open(filepath.Join(dir, "0005_lvl_ground.webp"))
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()
	cfg, err := webp.DecodeConfig(f)
	assert.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)

	_, err = os.Stat(filepath.Join(dir, "0006_gone.webp"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "0007_lost.webp"))
	assert.True(t, os.IsNotExist(err))
}
