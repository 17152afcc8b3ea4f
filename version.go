package tolambda

const PackageName = "tolambda"
const PackageVersion = "0.3.0"
const PackageAuthors = "TOS Network"
const PackageCopyRight = PackageName + " " + PackageVersion + " Copyright (C) 2024-2026 " + PackageAuthors
