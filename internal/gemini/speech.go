package gemini

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

const defaultSampleRate = 24000

func (c *sdkClient) SynthesizeSpeech(ctx context.Context, text string) (*Speech, error) {
	text = c.sanitizer.SanitizeText(text)
	if text == "" {
		return nil, nil
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.speechVoice},
			},
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(fmt.Sprintf(SpeechPrompt, text), genai.RoleUser)}

	resp, err := c.generate(ctx, "synthesize_speech", c.models.speech, contents, cfg)
	if err != nil {
		if IsQuotaError(err) {
			c.log.WarnContext(ctx, "Speech quota exhausted, continuing without audio")
			return nil, nil
		}
		return nil, err
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	mime := strings.ToLower(blob.MIMEType)
	if strings.HasPrefix(mime, "audio/l16") || strings.HasPrefix(mime, "audio/pcm") {
		return &Speech{Data: pcmToWAV(blob.Data, sampleRate(mime)), MIMEType: "audio/wav"}, nil
	}
	return &Speech{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}

// sampleRate reads the rate parameter of an audio/L16 MIME type.
func sampleRate(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && k == "rate" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return defaultSampleRate
}

// pcmToWAV prepends a RIFF header to 16-bit mono little-endian PCM.
func pcmToWAV(pcm []byte, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
