package ports

import (
	"goperm/domain/dataset"
)

// DataReaderPort loads tabular files into datasets
type DataReaderPort interface {
	ReadDataset() (*dataset.Dataset, error)
}
