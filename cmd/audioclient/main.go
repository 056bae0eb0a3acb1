package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

type transcribeResponse struct {
	Text     string `json:"text"`
	Filtered bool   `json:"filtered"`
}

type translateResponse struct {
	Text           string `json:"text"`
	Cached         bool   `json:"cached"`
	ProcessingTime int64  `json:"processingTime"`
	Filtered       bool   `json:"filtered"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	audioFile := flag.String("audio", "testdata/sample.wav", "Path to a 16-bit PCM WAV file")
	serverURL := flag.String("server", "http://localhost:8080", "HTTP server base URL")
	userID := flag.String("user", "user-demo", "User ID sent as X-User-ID")
	roomID := flag.String("room", "", "Room to share translations with")
	chunkSeconds := flag.Int("chunk", 5, "Seconds of audio per uploaded chunk")
	translate := flag.Bool("translate", true, "Translate each transcript")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}

	bytesPerSecond := int(sampleRate) * int(numChannels) * int(bitsPerSample) / 8
	chunkSize := bytesPerSecond * *chunkSeconds

	client := resty.New().
		SetBaseURL(*serverURL).
		SetTimeout(60*time.Second).
		SetHeader("X-User-ID", *userID)

	pcm := make([]byte, chunkSize)
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := io.ReadFull(f, pcm)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			log.Fatalf("Failed to read audio: %v", err)
		}
		chunkNum++

		chunk := wavChunk(header, pcm[:n])
		var tr transcribeResponse
		var apiErr errorResponse
		resp, err := client.R().
			SetFileReader("file", fmt.Sprintf("chunk-%03d.wav", chunkNum), bytes.NewReader(chunk)).
			SetResult(&tr).
			SetError(&apiErr).
			Post("/api/transcribe")
		if err != nil {
			log.Fatalf("Failed to upload chunk %d: %v", chunkNum, err)
		}
		if resp.IsError() {
			log.Printf("Chunk %d rejected: status=%d error=%s", chunkNum, resp.StatusCode(), apiErr.Error)
			continue
		}
		if tr.Text == "" {
			log.Printf("Chunk %d: no speech (filtered=%t)", chunkNum, tr.Filtered)
			continue
		}
		log.Printf("Chunk %d transcript: %s", chunkNum, tr.Text)

		if !*translate {
			continue
		}

		body := map[string]any{"text": tr.Text}
		if *roomID != "" {
			body["roomId"] = *roomID
		}
		var out translateResponse
		resp, err = client.R().
			SetBody(body).
			SetResult(&out).
			SetError(&apiErr).
			Post("/api/translate")
		if err != nil {
			log.Fatalf("Failed to translate chunk %d: %v", chunkNum, err)
		}
		if resp.IsError() {
			log.Printf("Translation failed: status=%d error=%s", resp.StatusCode(), apiErr.Error)
			continue
		}
		log.Printf("Chunk %d translation: %s (cached=%t filtered=%t %dms)",
			chunkNum, out.Text, out.Cached, out.Filtered, out.ProcessingTime)
	}

	log.Printf("Finished: %d chunks in %v", chunkNum, time.Since(startTime))
}

// wavChunk wraps raw PCM data in a copy of the source header with the
// RIFF and data sizes rewritten.
func wavChunk(header, pcm []byte) []byte {
	out := make([]byte, 0, wavHeaderSize+len(pcm))
	out = append(out, header...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	return append(out, pcm...)
}
