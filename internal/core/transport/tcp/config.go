package tcp

import "golang.org/x/time/rate"

// Config 传输层配置
type Config struct {
	// ListenAddr 监听地址
	//
	// 形如 "0.0.0.0:9000"，端口为 0 时由系统分配。
	ListenAddr string

	// AcceptRate 每秒接受连接数上限
	//
	// 0 表示不限速。
	AcceptRate rate.Limit

	// AcceptBurst 接受连接的突发上限
	//
	// 仅在 AcceptRate > 0 时生效，默认值: 16
	AcceptBurst int

	// ReadBufferSize 读循环缓冲区大小
	//
	// 默认值: 4096
	ReadBufferSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:0",
		AcceptRate:     0,
		AcceptBurst:    16,
		ReadBufferSize: 4096,
	}
}

// withDefaults 填充零值字段
func (c Config) withDefaults() Config {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:0"
	}
	if c.AcceptBurst <= 0 {
		c.AcceptBurst = 16
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 4096
	}
	return c
}
