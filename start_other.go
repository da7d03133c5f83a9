//go:build !linux && !darwin

package gkv

// Listen 在不支持的平台返回占位错误，保证编译通过
func (s *Server) Listen() error { return ErrPlatformNotSupported }

// Serve 在不支持的平台返回占位错误
func (s *Server) Serve() error { return ErrPlatformNotSupported }
