package config

// S3Config points at the object store that hosts uploaded avatars and
// cover images. Endpoint and PublicBaseURL are separate because uploads
// typically go to an internal endpoint (e.g. MinIO) while the stored URLs
// must be reachable by clients.
type S3Config struct {
	Region        string
	Endpoint      string // empty = AWS default endpoint
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

func LoadS3Config() S3Config {
	return S3Config{
		Region:        envStr("S3_REGION", "us-east-1"),
		Endpoint:      envStr("S3_ENDPOINT", ""),
		AccessKey:     must("S3_ACCESS_KEY"),
		SecretKey:     must("S3_SECRET_KEY"),
		Bucket:        must("S3_BUCKET"),
		PublicBaseURL: must("S3_PUBLIC_BASE_URL"),
	}
}
