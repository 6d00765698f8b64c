package datasource

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"watchtower-service/service/models"
)

var (
	// ErrUnsupportedFormat 上传文件格式不支持
	ErrUnsupportedFormat = errors.New("不支持的文件格式，请使用 CSV 或 JSON")
	// ErrInvalidUpload 上传内容无法解析
	ErrInvalidUpload = errors.New("上传内容无法解析")
)

// ParseUpload 按扩展名解析上传文件，返回记录列表。
// charset 为空时自动识别：BOM 优先，其次 UTF-8，非法 UTF-8 按 Windows-1252 解码
func ParseUpload(filename string, content []byte, charset string) ([]models.JSONB, error) {
	text, err := decodeText(content, charset)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(text)
	case ".json":
		return parseJSON(text)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func decodeText(content []byte, charset string) ([]byte, error) {
	var decoder transform.Transformer
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("不支持的字符集 %s: %w", charset, err)
		}
		decoder = enc.NewDecoder()
	} else {
		decoder = unicode.BOMOverride(transform.Nop)
	}

	result, _, err := transform.Bytes(decoder, content)
	if err != nil {
		return nil, fmt.Errorf("%w: 字符集转换失败: %v", ErrInvalidUpload, err)
	}
	if charset == "" && !utf8.Valid(result) {
		result, _, err = transform.Bytes(charmap.Windows1252.NewDecoder(), content)
		if err != nil {
			return nil, fmt.Errorf("%w: 字符集转换失败: %v", ErrInvalidUpload, err)
		}
	}
	return result, nil
}

func parseJSON(text []byte) ([]models.JSONB, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: 空文件", ErrInvalidUpload)
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	if trimmed[0] == '{' {
		var single models.JSONB
		if err := decoder.Decode(&single); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
		}
		return []models.JSONB{normalizeNumbers(single)}, nil
	}

	var records []models.JSONB
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	for i := range records {
		records[i] = normalizeNumbers(records[i])
	}
	return records, nil
}

// normalizeNumbers 将 json.Number 转为 int64 或 float64
func normalizeNumbers(record models.JSONB) models.JSONB {
	for k, v := range record {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			record[k] = i
		} else if f, err := n.Float64(); err == nil {
			record[k] = f
		} else {
			record[k] = n.String()
		}
	}
	return record
}

type columnKind int

const (
	kindInt columnKind = iota
	kindFloat
	kindBool
	kindString
)

func parseCSV(text []byte) ([]models.JSONB, error) {
	reader := csv.NewReader(bytes.NewReader(text))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: 缺少表头", ErrInvalidUpload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	kinds := make([]columnKind, len(header))
	for col := range header {
		kinds[col] = inferColumn(rows, col)
	}

	records := make([]models.JSONB, 0, len(rows))
	for _, row := range rows {
		record := make(models.JSONB, len(header))
		for col, name := range header {
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				record[name] = nil
				continue
			}
			record[name] = convertCell(strings.TrimSpace(row[col]), kinds[col])
		}
		records = append(records, record)
	}
	return records, nil
}

// inferColumn 整列统一推断类型，空值不参与推断
func inferColumn(rows [][]string, col int) columnKind {
	var cells []string
	for _, row := range rows {
		if col < len(row) {
			if cell := strings.TrimSpace(row[col]); cell != "" {
				cells = append(cells, cell)
			}
		}
	}
	if len(cells) == 0 {
		return kindString
	}

	for kind := kindInt; kind < kindString; kind++ {
		fits := true
		for _, cell := range cells {
			if !fitsKind(cell, kind) {
				fits = false
				break
			}
		}
		if fits {
			return kind
		}
	}
	return kindString
}

func fitsKind(cell string, kind columnKind) bool {
	switch kind {
	case kindInt:
		_, err := strconv.ParseInt(cell, 10, 64)
		return err == nil
	case kindFloat:
		_, err := cast.ToFloat64E(cell)
		return err == nil
	case kindBool:
		lower := strings.ToLower(cell)
		return lower == "true" || lower == "false"
	default:
		return true
	}
}

func convertCell(cell string, kind columnKind) interface{} {
	switch kind {
	case kindInt:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case kindFloat:
		return cast.ToFloat64(cell)
	case kindBool:
		return cast.ToBool(strings.ToLower(cell))
	default:
		return cell
	}
}
