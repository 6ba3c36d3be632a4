package cloudinary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores profile avatars in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// UploadAvatar stores the image under a per-user public id, replacing any previous avatar,
// and returns its secure URL.
func (s *Service) UploadAvatar(ctx context.Context, userID uint, reader io.Reader) (string, error) {
	overwrite := true
	params := uploader.UploadParams{
		Folder:         strings.Trim(s.folder, "/"),
		PublicID:       AvatarPublicID(userID),
		Overwrite:      &overwrite,
		Invalidate:     &overwrite,
		ResourceType:   "image",
		Transformation: "c_fill,g_face,w_256,h_256",
		Tags:           api.CldAPIArray{"avatar"},
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload avatar: %s", result.Error.Message)
	}

	s.logger.Info().Uint("user_id", userID).Str("public_id", result.PublicID).Msg("avatar uploaded to cloudinary")

	return result.SecureURL, nil
}

// AvatarPublicID is the stable public id used for a user's avatar.
func AvatarPublicID(userID uint) string {
	return fmt.Sprintf("user-%d-avatar", userID)
}
