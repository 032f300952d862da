package interfaces

type CompressorInterface interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Close()
}
