// Package handlers is made to handle requests
package handlers

import (
	"dsss-steganography/audio"
	"dsss-steganography/config"
	"dsss-steganography/models"
	"dsss-steganography/stego"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StegoHandler struct {
	config *config.Config
}

func NewStegoHandler(cfg *config.Config) *StegoHandler {
	return &StegoHandler{
		config: cfg,
	}
}

// Register mounts the API routes on router
func (h *StegoHandler) Register(router gin.IRouter) {
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/embed", h.EmbedMessage)
			stego.POST("/extract", h.ExtractMessage)
			stego.POST("/capacity", h.Capacity)
		}
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "DSSS steganography API is running",
		"version": "1.0.0",
	})
}

func (h *StegoHandler) EmbedMessage(c *gin.Context) {
	id := uuid.New().String()
	c.Header("X-Stego-ID", id)

	if err := c.Request.ParseMultipartForm(h.config.MaxUploadBytes()); err != nil {
		c.JSON(http.StatusBadRequest, models.EmbedResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
			ID:      id,
		})
		return
	}

	// an empty message is valid and embeds just the terminator
	message, ok := c.GetPostForm("message")
	if !ok {
		c.JSON(http.StatusBadRequest, models.EmbedResponse{
			Success: false,
			Message: "Message is required",
			ID:      id,
		})
		return
	}

	seed, dsss, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.EmbedResponse{
			Success: false,
			Message: err.Error(),
			ID:      id,
		})
		return
	}

	carrier, metadata, filename, err := readAudio(c, "audio_file")
	if err != nil {
		c.JSON(statusFor(err), models.EmbedResponse{
			Success: false,
			Message: err.Error(),
			ID:      id,
		})
		return
	}

	stegoSignal, err := dsss.Embed(carrier, message, seed)
	if err != nil {
		log.Printf("[%s] embed failed: %v", id, err)
		c.JSON(statusFor(err), models.EmbedResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to embed message: %v", err),
			ID:      id,
		})
		return
	}

	outDepth := audio.OutputBitDepth(metadata.BitDepth, h.config.Output.BitDepth)
	if n := audio.CountClipped(stegoSignal, metadata.BitDepth, outDepth, dsss.PayloadLen(message)); n > 0 {
		log.Printf("[%s] Warning: %d payload samples clip at %d bits, extraction may fail", id, n, outDepth)
	}

	stegoWAV, err := audio.EncodeWAV(stegoSignal, metadata, h.config.Output.BitDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.EmbedResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to encode stego audio: %v", err),
			ID:      id,
		})
		return
	}

	psnr := audio.CalculatePSNR(carrier, stegoSignal, audio.FullScale(metadata.BitDepth))
	if !audio.ValidatePSNR(psnr, h.config.Quality.PSNRThreshold) {
		log.Printf("[%s] Warning: PSNR %.2f dB is below threshold %.2f dB, the message may be audible",
			id, psnr, h.config.Quality.PSNRThreshold)
	}
	log.Printf("[%s] embedded %d bytes into %s (%s, %d Hz, %d ch, PSNR %.2f dB)",
		id, len(message), filename, metadata.Format, metadata.SampleRate, metadata.Channels, psnr)

	baseFilename := strings.TrimSuffix(filename, filepath.Ext(filename))
	outputFilename := fmt.Sprintf("%s_stego.wav", baseFilename)

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputFilename))
	c.Header("Content-Type", "audio/wav")
	c.Header("Content-Length", fmt.Sprintf("%d", len(stegoWAV)))

	// Include metadata about the steganography operation
	c.Header("X-Stego-Method", "DSSS")
	c.Header("X-Stego-Message", "Secret message successfully embedded and verified")
	c.Header("X-Stego-PSNR", fmt.Sprintf("%.2f", psnr))
	c.Header("X-Stego-Strength", strconv.FormatFloat(dsss.StrengthFactor(carrier), 'f', -1, 64))
	c.Header("X-Stego-Capacity", fmt.Sprintf("%d", dsss.Capacity(carrier.Len())))

	c.Data(http.StatusOK, "audio/wav", stegoWAV)
}

func (h *StegoHandler) ExtractMessage(c *gin.Context) {
	id := uuid.New().String()
	c.Header("X-Stego-ID", id)

	if err := c.Request.ParseMultipartForm(h.config.MaxUploadBytes()); err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
			ID:      id,
		})
		return
	}

	seed, dsss, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: err.Error(),
			ID:      id,
		})
		return
	}

	signal, _, _, err := readAudio(c, "stego_file")
	if err != nil {
		c.JSON(statusFor(err), models.ExtractResponse{
			Success: false,
			Message: err.Error(),
			ID:      id,
		})
		return
	}

	message, err := dsss.Extract(signal, seed)
	if err != nil {
		log.Printf("[%s] extract failed: %v", id, err)
		c.JSON(statusFor(err), models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("No message recovered. Possible causes: (1) File contains no embedded message, (2) Wrong seed or spreading factor, (3) Audio was modified after embedding. (%v)", err),
			ID:      id,
		})
		return
	}

	c.JSON(http.StatusOK, models.ExtractResponse{
		Success:       true,
		Message:       "Secret message successfully extracted",
		SecretMessage: message,
		ID:            id,
	})
}

func (h *StegoHandler) Capacity(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.config.MaxUploadBytes()); err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	_, dsss, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	carrier, metadata, _, err := readAudio(c, "audio_file")
	if err != nil {
		c.JSON(statusFor(err), models.CapacityResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:         true,
		Message:         "Capacity calculated",
		SpreadingFactor: dsss.SpreadingFactor(),
		Samples:         carrier.Len(),
		MaxMessageBytes: dsss.Capacity(carrier.Len()),
		Duration:        metadata.Duration,
	})
}

// parseParams reads seed, spreading_factor and strength_weight, falling back
// to the configured values
func (h *StegoHandler) parseParams(c *gin.Context) (int64, *stego.DSSS, error) {
	var seed int64
	if s := c.PostForm("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, nil, errors.New("seed must be an integer")
		}
		seed = v
	}

	dsssConfig := h.config.DSSSConfig()
	if s := c.PostForm("spreading_factor"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return 0, nil, errors.New("spreading factor must be a positive integer")
		}
		dsssConfig.SpreadingFactor = v
	}
	if s := c.PostForm("strength_weight"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return 0, nil, errors.New("strength weight must be a positive number")
		}
		dsssConfig.StrengthWeight = v
	}

	dsss, err := stego.NewDSSS(dsssConfig)
	if err != nil {
		return 0, nil, err
	}
	return seed, dsss, nil
}

var errBadUpload = errors.New("bad upload")

func readAudio(c *gin.Context, field string) (*models.Signal, *models.AudioMetadata, string, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %s is required", errBadUpload, field)
	}
	defer file.Close()

	if !audio.IsSupported(header.Filename) {
		return nil, nil, "", fmt.Errorf("%w: invalid audio file format, supported formats are %v",
			errBadUpload, audio.SupportedExtensions)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read %s: %v", field, err)
	}

	signal, metadata, err := audio.Decode(header.Filename, data)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %v", errBadUpload, err)
	}
	return signal, metadata, header.Filename, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadUpload),
		errors.Is(err, stego.ErrCapacityExceeded),
		errors.Is(err, stego.ErrInvalidMessage),
		errors.Is(err, stego.ErrInvalidSignal),
		errors.Is(err, stego.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, stego.ErrEmbedVerificationFailed),
		errors.Is(err, stego.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
