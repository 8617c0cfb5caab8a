// FILE: src/internal/protocol/enums.go
package protocol

import (
	"fmt"

	"pgmoneta-mcp/src/internal/core"
)

// Command is a management command code
type Command uint32

const (
	CommandBackup Command = iota + 1
	CommandListBackup
	CommandRestore
	CommandArchive
	CommandDelete
	CommandShutdown
	CommandStatus
	CommandStatusDetails
	CommandPing
	CommandReset
	CommandReload
	CommandRetain
	CommandExpunge
	CommandDecrypt
	CommandEncrypt
	CommandDecompress
	CommandCompress
	CommandInfo
	CommandAnnotate
	CommandConfLs
	CommandConfGet
	CommandConfSet
)

// Compression identifies a payload or backup compression method
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
	CompressionBzip2
	CompressionServerGzip
	CompressionServerZstd
	CompressionServerLZ4
)

// Encryption identifies a payload or backup encryption method
type Encryption uint8

const (
	EncryptionNone Encryption = iota
	EncryptionAES256CBC
	EncryptionAES192CBC
	EncryptionAES128CBC
	EncryptionAES256CTR
	EncryptionAES192CTR
	EncryptionAES128CTR
)

// Format is the requested output format
type Format uint8

const FormatJSON Format = 0

var commandNames = map[Command]string{
	CommandBackup:        "backup",
	CommandListBackup:    "list-backup",
	CommandRestore:       "restore",
	CommandArchive:       "archive",
	CommandDelete:        "delete",
	CommandShutdown:      "shutdown",
	CommandStatus:        "status",
	CommandStatusDetails: "status-details",
	CommandPing:          "ping",
	CommandReset:         "reset",
	CommandReload:        "reload",
	CommandRetain:        "retain",
	CommandExpunge:       "expunge",
	CommandDecrypt:       "decrypt",
	CommandEncrypt:       "encrypt",
	CommandDecompress:    "decompress",
	CommandCompress:      "compress",
	CommandInfo:          "info",
	CommandAnnotate:      "annotate",
	CommandConfLs:        "conf-ls",
	CommandConfGet:       "conf-get",
	CommandConfSet:       "conf-set",
}

var compressionNames = map[Compression]string{
	CompressionNone:       "none",
	CompressionGzip:       "gzip",
	CompressionZstd:       "zstd",
	CompressionLZ4:        "lz4",
	CompressionBzip2:      "bzip2",
	CompressionServerGzip: "server-gzip",
	CompressionServerZstd: "server-zstd",
	CompressionServerLZ4:  "server-lz4",
}

var encryptionNames = map[Encryption]string{
	EncryptionNone:      "none",
	EncryptionAES256CBC: "aes-256-cbc",
	EncryptionAES192CBC: "aes-192-cbc",
	EncryptionAES128CBC: "aes-128-cbc",
	EncryptionAES256CTR: "aes-256-ctr",
	EncryptionAES192CTR: "aes-192-ctr",
	EncryptionAES128CTR: "aes-128-ctr",
}

// TranslateCommand returns the display name of a command code
func TranslateCommand(code uint64) (string, error) {
	if code <= 0xFFFFFFFF {
		if name, ok := commandNames[Command(code)]; ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: command %d", core.ErrUnrecognizedEnum, code)
}

// TranslateCompression returns the display name of a compression code
func TranslateCompression(code uint64) (string, error) {
	if code <= 0xFF {
		if name, ok := compressionNames[Compression(code)]; ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: compression %d", core.ErrUnrecognizedEnum, code)
}

// TranslateEncryption returns the display name of an encryption code
func TranslateEncryption(code uint64) (string, error) {
	if code <= 0xFF {
		if name, ok := encryptionNames[Encryption(code)]; ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: encryption %d", core.ErrUnrecognizedEnum, code)
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", uint32(c))
}
