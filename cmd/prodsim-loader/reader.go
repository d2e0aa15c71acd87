package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/shopsight/prodsim/internal/domain"
)

// productRow mirrors one record of the product parquet export. Category
// columns are flat pairs; empty IDs mean the level is absent.
type productRow struct {
	ProductID      string   `parquet:"product_id"`
	ProductName    string   `parquet:"product_name,optional"`
	ProductDesc    string   `parquet:"product_desc,optional"`
	SalePrice      *float64 `parquet:"sale_price,optional"`
	DataSource     string   `parquet:"data_source"`
	URL            string   `parquet:"url,optional"`
	Image          string   `parquet:"image,optional"`
	Category0ID    string   `parquet:"category_0_id,optional"`
	Category0Label string   `parquet:"category_0_label,optional"`
	Category1ID    string   `parquet:"category_1_id,optional"`
	Category1Label string   `parquet:"category_1_label,optional"`
	Category2ID    string   `parquet:"category_2_id,optional"`
	Category2Label string   `parquet:"category_2_label,optional"`
}

func (r productRow) toDomain() domain.Product {
	p := domain.Product{
		ID:          r.ProductID,
		Name:        r.ProductName,
		Description: r.ProductDesc,
		SalePrice:   r.SalePrice,
		Source:      r.DataSource,
		URL:         r.URL,
		Image:       r.Image,
	}
	for _, c := range []domain.Category{
		{ID: r.Category0ID, Label: r.Category0Label},
		{ID: r.Category1ID, Label: r.Category1Label},
		{ID: r.Category2ID, Label: r.Category2Label},
	} {
		if c.ID == "" {
			break
		}
		p.Categories = append(p.Categories, c)
	}
	return p
}

// embeddingRow mirrors one record of the embedding parquet export. Vector is
// the bracketed text form produced by the clustering job; it is stored as-is
// and parsed at index build time.
type embeddingRow struct {
	ProductID  string `parquet:"product_id"`
	ClusterID  int64  `parquet:"cluster_id"`
	DataSource string `parquet:"data_source"`
	Vector     string `parquet:"vector"`
}

func (r embeddingRow) toDomain() domain.Embedding {
	return domain.Embedding{
		ProductID: r.ProductID,
		ClusterID: int(r.ClusterID),
		Source:    r.DataSource,
		RawVector: r.Vector,
	}
}

// streamParquet reads a parquet file in chunks and hands each row to fn.
// Stops after maxRows when maxRows > 0.
func streamParquet[T any](path string, maxRows int, fn func(T) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	buf := make([]T, 256)
	total := 0
	for {
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			if maxRows > 0 && total >= maxRows {
				return total, nil
			}
			if fnErr := fn(buf[i]); fnErr != nil {
				return total, fnErr
			}
			total++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, fmt.Errorf("read %s: %w", path, err)
		}
	}
}
