package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uniedit/filelink/internal/shared/config"
)

func TestApplyPresignOptions(t *testing.T) {
	t.Run("flags override config", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Upload.LocalDir = "assets/"
		cfg.Storage.Bucket = "from-config"

		applyPresignOptions(cfg, &presignOptions{
			dir:         "/tmp/out",
			bucket:      "reports",
			roleARN:     "arn:aws:iam::123456789012:role/reports",
			sessionName: "s",
			region:      "eu-west-1",
		})

		assert.Equal(t, "/tmp/out", cfg.Upload.LocalDir)
		assert.Equal(t, "reports", cfg.Storage.Bucket)
		assert.Equal(t, "arn:aws:iam::123456789012:role/reports", cfg.STS.RoleARN)
		assert.Equal(t, "s", cfg.STS.SessionName)
		assert.Equal(t, "eu-west-1", cfg.STS.Region)
	})

	t.Run("empty flags keep config", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Upload.LocalDir = "assets/"
		cfg.Storage.Bucket = "from-config"

		applyPresignOptions(cfg, &presignOptions{})

		assert.Equal(t, "assets/", cfg.Upload.LocalDir)
		assert.Equal(t, "from-config", cfg.Storage.Bucket)
	})
}
