package audio

import (
	"io"
	"os"

	"github.com/dhowden/tag"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit stereo, 4 bytes per sample frame.
const mp3Channels = 2

// MP3Decoder opens MP3 files as decode sessions.
type MP3Decoder struct{}

// NewMP3Decoder creates a new MP3 decoder
func NewMP3Decoder() *MP3Decoder {
	return &MP3Decoder{}
}

// Open opens path for decoding. Tag metadata is read first (ID3v2 wins over
// ID3v1; missing tags leave the fields empty) and never fails the load.
func (d *MP3Decoder) Open(path string) (Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	title, artist := readTags(file)

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}

	dec, err := mp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &mp3Session{
		file:   file,
		dec:    dec,
		title:  title,
		artist: artist,
	}, nil
}

// readTags extracts title/artist from embedded tags, if any.
func readTags(r io.ReadSeeker) (title, artist string) {
	meta, err := tag.ReadFrom(r)
	if err != nil {
		return "", ""
	}
	return meta.Title(), meta.Artist()
}

type mp3Session struct {
	file   *os.File
	dec    *mp3.Decoder
	title  string
	artist string
}

func (s *mp3Session) Format() Format {
	return Format{SampleRate: s.dec.SampleRate(), Channels: mp3Channels}
}

func (s *mp3Session) Read(p []byte) (int, error) {
	return s.dec.Read(p)
}

func (s *mp3Session) Seek(sample int64) error {
	_, err := s.dec.Seek(sample*int64(mp3Channels*2), io.SeekStart)
	return err
}

func (s *mp3Session) Length() int64 {
	n := s.dec.Length()
	if n <= 0 {
		return 0
	}
	return n / int64(mp3Channels*2)
}

func (s *mp3Session) Title() string  { return s.title }
func (s *mp3Session) Artist() string { return s.artist }

func (s *mp3Session) Close() error {
	return s.file.Close()
}
