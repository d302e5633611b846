package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SampleFile pairs a dataset CSV file name with bundled demo contents.
type SampleFile struct {
	Name    string
	Content string
}

// SampleDataFiles lists the bundled sample datasets in load order. Ten days
// of metrics for three products; item 42 loses ad eligibility after June 1.
var SampleDataFiles = []SampleFile{
	{Name: "ad_sales.csv", Content: sampleAdSalesCSV},
	{Name: "total_sales.csv", Content: sampleTotalSalesCSV},
	{Name: "eligibility.csv", Content: sampleEligibilityCSV},
}

// MissingDataFiles reports which dataset CSVs are absent from the data directory.
func MissingDataFiles(dataDir string) []SampleFile {
	var missing []SampleFile

	for _, file := range SampleDataFiles {
		path := filepath.Join(dataDir, file.Name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			missing = append(missing, file)
		}
	}

	return missing
}

// PromptForSampleData asks the user whether to write the bundled sample datasets.
func PromptForSampleData(missing []SampleFile) bool {
	if len(missing) == 0 {
		return false
	}

	fmt.Println("\n⚠️  Missing dataset files:")
	for _, file := range missing {
		fmt.Printf("   - %s\n", file.Name)
	}

	fmt.Println("\nAdLens ships sample datasets so you can try it right away.")
	fmt.Print("\nWrite the sample datasets now? (y/N): ")

	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))

	return response == "y" || response == "yes"
}

// WriteSampleData writes the given sample datasets into the data directory.
func WriteSampleData(dataDir string, missing []SampleFile) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	for i, file := range missing {
		path := filepath.Join(dataDir, file.Name)
		if err := os.WriteFile(path, []byte(file.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("   ✓ [%d/%d] Wrote %s\n", i+1, len(missing), file.Name)
	}

	fmt.Println("\n✅ Sample datasets written. Replace them with your own CSV exports any time.")
	return nil
}

const sampleAdSalesCSV = `date,item_id,ad_sales,impressions,ad_spend,clicks,units_sold
2024-06-01,11,524.50,14320,205.00,142,21
2024-06-02,11,648.10,15875,298.50,166,26
2024-06-03,11,492.75,13660,221.25,137,19
2024-06-04,11,575.40,14980,246.00,151,23
2024-06-05,11,631.20,16210,284.75,172,25
2024-06-06,11,483.65,13150,212.50,131,18
2024-06-07,11,702.35,16480,312.00,175,27
2024-06-08,11,554.90,14725,238.25,148,22
2024-06-09,11,611.45,15590,267.50,160,24
2024-06-10,11,668.80,16055,301.75,169,26
2024-06-01,23,412.00,9850,234.50,97,15
2024-06-02,23,388.25,10240,251.00,101,14
2024-06-03,23,356.70,9420,218.75,92,12
2024-06-04,23,431.55,10865,259.25,108,16
2024-06-05,23,404.90,10110,242.00,99,14
2024-06-06,23,337.40,9035,201.50,88,11
2024-06-07,23,446.85,11320,263.75,113,17
2024-06-08,23,375.60,9680,226.25,94,13
2024-06-09,23,419.30,10475,247.50,104,15
2024-06-10,23,394.15,9965,233.00,98,14
2024-06-01,42,148.20,8240,182.50,78,5
2024-06-02,42,125.85,7920,167.25,73,4
2024-06-03,42,173.40,8855,196.00,85,6
2024-06-04,42,102.60,7515,153.75,69,3
2024-06-05,42,190.25,9130,204.50,91,7
2024-06-06,42,137.90,8075,174.00,75,5
2024-06-07,42,164.55,8620,189.25,82,6
2024-06-08,42,118.30,7780,161.50,71,4
2024-06-09,42,181.75,8985,198.75,87,6
2024-06-10,42,156.40,8410,185.00,80,5`

const sampleTotalSalesCSV = `date,item_id,total_sales,total_units_ordered
2024-06-01,11,982.50,39
2024-06-02,11,1118.25,45
2024-06-03,11,905.70,36
2024-06-04,11,1041.30,42
2024-06-05,11,1152.80,46
2024-06-06,11,887.45,35
2024-06-07,11,1224.95,49
2024-06-08,11,1007.15,40
2024-06-09,11,1096.60,44
2024-06-10,11,1183.35,47
2024-06-01,23,762.00,30
2024-06-02,23,706.40,28
2024-06-03,23,655.25,26
2024-06-04,23,793.70,31
2024-06-05,23,741.85,29
2024-06-06,23,622.10,24
2024-06-07,23,818.45,32
2024-06-08,23,689.95,27
2024-06-09,23,770.30,30
2024-06-10,23,725.55,28
2024-06-01,42,295.40,11
2024-06-02,42,257.15,9
2024-06-03,42,331.80,12
2024-06-04,42,214.50,8
2024-06-05,42,368.25,14
2024-06-06,42,278.90,10
2024-06-07,42,319.65,12
2024-06-08,42,241.70,9
2024-06-09,42,354.10,13
2024-06-10,42,306.85,11`

const sampleEligibilityCSV = `eligibility_datetime_utc,item_id,eligibility,message
2024-06-10 08:15:00,11,TRUE,
2024-06-10 08:15:00,23,TRUE,
2024-06-10 08:15:00,42,FALSE,Product listing is missing required attributes
2024-06-05 08:15:00,11,TRUE,
2024-06-05 08:15:00,23,TRUE,
2024-06-05 08:15:00,42,FALSE,Product listing is missing required attributes
2024-06-01 08:15:00,11,TRUE,
2024-06-01 08:15:00,23,TRUE,
2024-06-01 08:15:00,42,TRUE,`
